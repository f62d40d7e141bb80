package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/straye-as/preflight/internal/config"
)

// SecurityHeaders stamps the configured hardening headers onto every
// response. The header set depends only on configuration, so it is
// assembled once when the middleware is mounted.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	static := hardeningHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range static {
				h.Set(name, value)
			}

			// Strip banner headers that leak implementation details
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func hardeningHeaders(cfg *config.SecurityConfig) map[string]string {
	headers := make(map[string]string)

	if cfg.ContentTypeNosniff {
		headers["X-Content-Type-Options"] = "nosniff"
	}
	if cfg.FrameOptions != "" {
		headers["X-Frame-Options"] = cfg.FrameOptions
	}
	if cfg.XSSProtection != "" {
		headers["X-XSS-Protection"] = cfg.XSSProtection
	}
	if cfg.ContentSecurityPolicy != "" {
		headers["Content-Security-Policy"] = cfg.ContentSecurityPolicy
	}
	if cfg.ReferrerPolicy != "" {
		headers["Referrer-Policy"] = cfg.ReferrerPolicy
	}
	if cfg.PermissionsPolicy != "" {
		headers["Permissions-Policy"] = cfg.PermissionsPolicy
	}
	if cfg.EnableHSTS {
		headers["Strict-Transport-Security"] = hstsDirective(cfg)
	}

	return headers
}

func hstsDirective(cfg *config.SecurityConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "max-age=%d", cfg.HSTSMaxAge)
	if cfg.HSTSIncludeSubdomains {
		b.WriteString("; includeSubDomains")
	}
	if cfg.HSTSPreload {
		b.WriteString("; preload")
	}
	return b.String()
}
