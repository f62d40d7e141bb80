package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/preflight/internal/auth"
	"github.com/straye-as/preflight/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMiddleware(t *testing.T) *auth.Middleware {
	t.Helper()

	cfg := &config.Config{
		ApiKey: config.ApiKeyConfig{Value: "test-api-key"},
		AzureAd: config.AzureAdConfig{
			TenantId: "00000000-0000-0000-0000-000000000001",
			ClientId: "00000000-0000-0000-0000-000000000002",
		},
	}
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func TestAuthenticateWithAPIKey(t *testing.T) {
	m := newTestMiddleware(t)

	var captured *auth.UserContext
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("x-api-key", "test-api-key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "System", captured.DisplayName)
	assert.Equal(t, "api_key", captured.AuthType)
	assert.True(t, captured.HasRole(auth.RoleAdmin))
}

func TestAuthenticateWithInvalidAPIKey(t *testing.T) {
	m := newTestMiddleware(t)

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("x-api-key", "wrong-key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateWithoutCredentials(t *testing.T) {
	m := newTestMiddleware(t)

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateWithMalformedBearer(t *testing.T) {
	m := newTestMiddleware(t)

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("Authorization", "NotBearer abc123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	m := newTestMiddleware(t)

	handler := m.RequireRole(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no user context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("insufficient role", func(t *testing.T) {
		user := &auth.UserContext{Roles: []string{auth.RoleOperator}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		req = req.WithContext(auth.WithUserContext(req.Context(), user))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("matching role", func(t *testing.T) {
		user := &auth.UserContext{Roles: []string{auth.RoleAdmin}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		req = req.WithContext(auth.WithUserContext(req.Context(), user))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
