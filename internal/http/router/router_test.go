package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/straye-as/preflight/internal/auth"
	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/http/handler"
	"github.com/straye-as/preflight/internal/http/middleware"
	"github.com/straye-as/preflight/internal/http/router"
	"github.com/straye-as/preflight/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRouter wires the full middleware chain with history, warehouse
// and swagger all disabled.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App = config.AppConfig{
		Name:        "Straye Preflight",
		Version:     "1.0.0",
		Environment: "development",
		Port:        8080,
	}

	log := zap.NewNop()
	svc := service.NewDiagnosticService(nil, nil, log)

	rt := router.NewRouter(
		cfg,
		log,
		nil,
		nil,
		auth.NewMiddleware(cfg, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		handler.NewDiagnosticHandler(svc, time.Second, log),
	)
	return rt.Setup()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Liveness(t *testing.T) {
	w := get(t, newTestRouter(t), "/health")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Straye Preflight", body["app"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["time"])
}

func TestRouter_HistoryHealth_Disabled(t *testing.T) {
	w := get(t, newTestRouter(t), "/health/db")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "disabled", body["status"])
}

func TestRouter_WarehouseHealth_Disabled(t *testing.T) {
	w := get(t, newTestRouter(t), "/health/warehouse")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "disabled", body["status"])
}

func TestRouter_Readiness_NoDependencies(t *testing.T) {
	w := get(t, newTestRouter(t), "/health/ready")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_RunsRequireAuth(t *testing.T) {
	w := get(t, newTestRouter(t), "/api/v1/runs")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SwaggerGated(t *testing.T) {
	w := get(t, newTestRouter(t), "/swagger/index.html")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequestIDOnResponses(t *testing.T) {
	w := get(t, newTestRouter(t), "/health")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
