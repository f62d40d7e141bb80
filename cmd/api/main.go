package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/preflight/docs"
	"github.com/straye-as/preflight/internal/auth"
	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/database"
	"github.com/straye-as/preflight/internal/http/handler"
	"github.com/straye-as/preflight/internal/http/middleware"
	"github.com/straye-as/preflight/internal/http/router"
	"github.com/straye-as/preflight/internal/jobs"
	"github.com/straye-as/preflight/internal/logger"
	"github.com/straye-as/preflight/internal/probe"
	"github.com/straye-as/preflight/internal/repository"
	"github.com/straye-as/preflight/internal/service"
	"github.com/straye-as/preflight/internal/warehouse"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title Straye Preflight API
// @version 1.0
// @description Cloud connectivity diagnostic service for Azure storage and database dependencies
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// The logger needs configuration, so a bare Load comes first; the
	// secret-resolving load follows once logging is up.
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = swaggerHost(basicCfg.App.Environment, basicCfg.App.Port)

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Refuse to start on an incomplete target configuration; the error
	// names every missing variable at once.
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := openHistory(&cfg.History, log)
	if err != nil {
		return err
	}

	// The warehouse client opens lazily, so a dead warehouse fails its
	// own stage instead of blocking startup.
	warehouseClient, err := warehouse.NewClient(&cfg.Warehouse, log)
	if err != nil {
		return fmt.Errorf("failed to initialize warehouse client: %w", err)
	}

	var runRepo *repository.RunRepository
	if db != nil {
		runRepo = repository.NewRunRepository(db)
	}
	diagnosticService := service.NewDiagnosticService(buildProbes(cfg, warehouseClient, log), runRepo, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		warehouseClient,
		auth.NewMiddleware(cfg, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		handler.NewDiagnosticHandler(diagnosticService, cfg.Server.RunTimeoutDuration(), log),
	)

	scheduler := startScheduler(&cfg.Scheduler, diagnosticService, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := warehouseClient.Close(); err != nil {
			log.Warn("Error closing warehouse connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// swaggerHost picks the host the generated API docs advertise.
func swaggerHost(environment string, port int) string {
	switch environment {
	case "staging":
		return "straye-preflight-staging.proudsmoke-10281cc0.norwayeast.azurecontainerapps.io"
	case "production":
		return "preflight.straye.no"
	default:
		return fmt.Sprintf("localhost:%d", port)
	}
}

// openHistory opens and migrates the run history store. Nil without an
// error means history is disabled and runs are executed without being
// recorded.
func openHistory(cfg *config.HistoryConfig, log *zap.Logger) (*gorm.DB, error) {
	if !cfg.Enabled {
		log.Info("Run history disabled, runs will not be persisted")
		return nil, nil
	}

	db, err := database.NewHistoryStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate history store: %w", err)
	}

	log.Info("Run history enabled", zap.String("driver", cfg.Driver))
	return db, nil
}

// buildProbes assembles the check stages in their fixed order: object
// store, then database, then the optional warehouse.
func buildProbes(cfg *config.Config, wh *warehouse.Client, log *zap.Logger) []probe.Prober {
	probes := []probe.Prober{
		probe.NewBlobProbe(&cfg.Storage, log),
		probe.NewPostgresProbe(&cfg.Database, log),
	}
	if wh.IsEnabled() {
		probes = append(probes, probe.NewWarehouseProbe(wh, log))
	}
	return probes
}

// startScheduler wires the periodic diagnostic job when enabled and
// returns nil otherwise.
func startScheduler(cfg *config.SchedulerConfig, runner jobs.DiagnosticRunner, log *zap.Logger) *jobs.Scheduler {
	if !cfg.Enabled {
		log.Info("Periodic diagnostic runs disabled")
		return nil
	}

	s := jobs.NewScheduler(log)
	if err := jobs.RegisterDiagnosticJob(s, runner, log, cfg.CronExpr, cfg.RunTimeoutDuration()); err != nil {
		log.Error("Failed to register diagnostic job", zap.Error(err))
		return nil
	}

	s.Start()
	log.Info("Scheduler started with periodic diagnostic runs",
		zap.String("cron_expr", cfg.CronExpr),
		zap.Duration("timeout", cfg.RunTimeoutDuration()))
	return s
}
