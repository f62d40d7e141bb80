package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/preflight/internal/config"
	"go.uber.org/zap"
)

// Middleware authenticates HTTP requests with either the admin API key
// or an Azure AD bearer token.
type Middleware struct {
	jwtValidator *JWTValidator
	apiKey       string
	logger       *zap.Logger
}

// NewMiddleware wires the validator and API key from configuration.
func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.AzureAd),
		apiKey:       cfg.ApiKey.Value,
		logger:       logger,
	}
}

// systemUserContext is the identity granted to API key callers.
func systemUserContext() *UserContext {
	return &UserContext{
		UserID:      uuid.Nil,
		DisplayName: "System",
		Email:       "system@straye.io",
		Roles:       []string{RoleAdmin},
		AuthType:    "api_key",
	}
}

// Authenticate admits requests carrying either a valid API key or a
// valid bearer token. The API key is checked first so automation
// callers never touch the JWKS endpoint.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("x-api-key"); key != "" {
			m.serveWithAPIKey(w, r, next, key)
			return
		}
		m.serveWithBearer(w, r, next)
	})
}

func (m *Middleware) serveWithAPIKey(w http.ResponseWriter, r *http.Request, next http.Handler, key string) {
	start := time.Now()

	// Constant-time compare; an unconfigured key rejects everything
	if m.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
		m.logger.Warn("rejected invalid API key",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	m.logger.Info("authenticated with API key",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("auth_type", "api_key"),
		zap.Duration("auth_duration", time.Since(start)))

	next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), systemUserContext())))
}

func (m *Middleware) serveWithBearer(w http.ResponseWriter, r *http.Request, next http.Handler) {
	start := time.Now()

	header := r.Header.Get("Authorization")
	if header == "" {
		http.Error(w, "Unauthorized: no credentials provided", http.StatusUnauthorized)
		return
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		http.Error(w, "Unauthorized: malformed authorization header", http.StatusUnauthorized)
		return
	}

	userCtx, err := m.jwtValidator.ValidateToken(token)
	if err != nil {
		m.logger.Warn("rejected bearer token",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
		return
	}

	m.logger.Info("authenticated with bearer token",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("auth_type", "jwt"),
		zap.String("user_id", userCtx.UserID.String()),
		zap.String("user_email", userCtx.Email),
		zap.Strings("roles", userCtx.Roles),
		zap.Duration("auth_duration", time.Since(start)))

	next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
}

// RequireRole gates a route on the caller holding at least one of the
// given roles. It must run after Authenticate.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: not authenticated", http.StatusForbidden)
				return
			}
			if !userCtx.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: missing required role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
