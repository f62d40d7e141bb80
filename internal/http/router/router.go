package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/preflight/internal/auth"
	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/database"
	"github.com/straye-as/preflight/internal/http/handler"
	"github.com/straye-as/preflight/internal/http/middleware"
	"github.com/straye-as/preflight/internal/warehouse"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/preflight/docs" // Import generated swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	warehouseClient   *warehouse.Client
	authMiddleware    *auth.Middleware
	rateLimiter       *middleware.RateLimiter
	diagnosticHandler *handler.DiagnosticHandler
}

// NewRouter wires the HTTP surface. db is the run history store and may
// be nil when history is disabled; warehouseClient may be a nil client
// when the warehouse stage is not configured.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	warehouseClient *warehouse.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	diagnosticHandler *handler.DiagnosticHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		warehouseClient:   warehouseClient,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		diagnosticHandler: diagnosticHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", rt.liveness)

	// History store health check (readiness probe with pool stats)
	r.Get("/health/db", rt.historyHealth)

	// Warehouse health check
	r.Get("/health/warehouse", rt.warehouseHealth)

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", rt.readiness)

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", rt.diagnosticHandler.ListRuns)
				r.Get("/latest", rt.diagnosticHandler.GetLatestRun)
				r.Get("/{id}", rt.diagnosticHandler.GetRun)

				// Triggering a run exercises live infrastructure
				r.With(rt.authMiddleware.RequireRole(auth.RoleAdmin, auth.RoleOperator)).
					Post("/", rt.diagnosticHandler.TriggerRun)
			})
		})
	})

	return r
}

func (rt *Router) liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"app":     rt.cfg.App.Name,
		"version": rt.cfg.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) historyHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if rt.db == nil {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "disabled",
			"service": "history",
		})
		return
	}

	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("History store health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "history",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "history",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			"max_idle_closed":      stats.MaxIdleClosed,
			"max_lifetime_closed":  stats.MaxLifetimeClosed,
		},
	})
}

func (rt *Router) warehouseHealth(w http.ResponseWriter, r *http.Request) {
	health := rt.warehouseClient.HealthCheck(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		rt.logger.Error("Warehouse health check failed", zap.String("error", health.Error))
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(health)
}

func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	// Check the history store when one is configured
	if rt.db != nil {
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("History store health check failed", zap.Error(err))
			checks["history"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["history"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	}

	// Check the warehouse when the stage is enabled
	if rt.warehouseClient.IsEnabled() {
		health := rt.warehouseClient.HealthCheck(r.Context())
		checks["warehouse"] = map[string]interface{}{
			"status": health.Status,
		}
		if health.Status == "unhealthy" {
			allHealthy = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if allHealthy {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
			"checks": checks,
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "unhealthy",
			"checks": checks,
		})
	}
}
