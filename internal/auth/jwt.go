package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/straye-as/preflight/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidScope = errors.New("token missing required scope")
)

// Signing keys are re-fetched from the JWKS endpoint after this long,
// or immediately when a token references an unknown kid.
const keyRefreshInterval = 24 * time.Hour

// JWTValidator checks Azure AD bearer tokens: signature against the
// tenant's published keys, then audience, issuer and scopes.
type JWTValidator struct {
	config     *config.AzureAdConfig
	httpClient *http.Client

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	lastUpdate time.Time
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AzureAdConfig) *JWTValidator {
	return &JWTValidator{
		config:     cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// ValidateToken verifies a bearer token and returns the caller identity
// carried in its claims.
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, v.keyFor)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if err := v.checkAudience(claims); err != nil {
		return nil, err
	}
	if err := v.checkIssuer(claims); err != nil {
		return nil, err
	}
	if v.config.RequiredScopes != "" && !HasRequiredScope(ExtractScopes(claims), v.config.RequiredScopes) {
		return nil, ErrInvalidScope
	}

	return userFromClaims(claims), nil
}

// keyFor resolves the signing key a token's header points at.
func (v *JWTValidator) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("missing kid in header")
	}
	return v.getPublicKey(kid)
}

func (v *JWTValidator) checkAudience(claims jwt.MapClaims) error {
	if v.config.ClientId == "" {
		return nil
	}
	aud, _ := claims.GetAudience()
	for _, a := range aud {
		if a == v.config.ClientId || strings.Contains(a, v.config.ClientId) {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid audience", ErrInvalidToken)
}

func (v *JWTValidator) checkIssuer(claims jwt.MapClaims) error {
	iss, _ := claims.GetIssuer()
	if !strings.Contains(iss, v.config.TenantId) {
		return fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}
	return nil
}

// userFromClaims maps Azure AD claims onto a caller identity. When the
// oid claim is absent or unparsable the id is derived from the email so
// it stays stable across requests.
func userFromClaims(claims jwt.MapClaims) *UserContext {
	userCtx := &UserContext{
		DisplayName: extractString(claims, "name", "unique_name", "preferred_username"),
		Email:       extractString(claims, "email", "upn", "unique_name"),
		Roles:       ExtractRoles(claims),
		AuthType:    "jwt",
	}

	if oid := extractString(claims, "oid", "sub"); oid != "" {
		if uid, err := uuid.Parse(oid); err == nil {
			userCtx.UserID = uid
		}
	}
	if userCtx.UserID == uuid.Nil && userCtx.Email != "" {
		userCtx.UserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(userCtx.Email))
	}

	return userCtx
}

func (v *JWTValidator) getPublicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.cachedKey(kid)
	v.mu.RUnlock()
	if ok {
		return key, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Another request may have refreshed while we waited for the lock
	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}
	if err := v.refreshKeys(); err != nil {
		return nil, err
	}

	key, found := v.keys[kid]
	if !found {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}
	return key, nil
}

// cachedKey requires at least a read lock.
func (v *JWTValidator) cachedKey(kid string) (*rsa.PublicKey, bool) {
	if time.Since(v.lastUpdate) >= keyRefreshInterval {
		return nil, false
	}
	key, ok := v.keys[kid]
	return key, ok
}

// refreshKeys replaces the key set from the JWKS endpoint. Requires the
// write lock.
func (v *JWTValidator) refreshKeys() error {
	jwksURL := fmt.Sprintf("%s%s/discovery/v2.0/keys", v.config.InstanceUrl, v.config.TenantId)

	resp, err := v.httpClient.Get(jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwksKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Use != "sig" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	v.lastUpdate = time.Now()
	return nil
}

type jwksKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// publicKey assembles an RSA public key from the base64url modulus and
// exponent fields.
func (k jwksKey) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

// extractString returns the first claim among keys holding a non-empty
// string.
func extractString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if s, ok := claims[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ExtractRoles collects app roles from the roles/role claims.
func ExtractRoles(claims jwt.MapClaims) []string {
	roles := []string{}
	for _, key := range []string{"roles", "role"} {
		switch v := claims[key].(type) {
		case []interface{}:
			for _, r := range v {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
		case []string:
			roles = append(roles, v...)
		case string:
			roles = append(roles, v)
		}
	}
	return roles
}

// ExtractScopes collects delegated scopes from the scp/scope claims.
func ExtractScopes(claims jwt.MapClaims) []string {
	scopes := []string{}
	for _, key := range []string{"scp", "scope"} {
		if s, ok := claims[key].(string); ok {
			scopes = append(scopes, strings.Fields(s)...)
		}
	}
	return scopes
}

// HasRequiredScope reports whether any scope in the comma-separated
// required list is present, ignoring case. An empty requirement always
// passes.
func HasRequiredScope(tokenScopes []string, required string) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return true
	}

	for _, req := range strings.Split(required, ",") {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		for _, scope := range tokenScopes {
			if strings.EqualFold(scope, req) {
				return true
			}
		}
	}
	return false
}
