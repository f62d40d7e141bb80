package main

import (
	"context"
	"fmt"
	"os"

	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/database"
	"github.com/straye-as/preflight/internal/domain"
	"github.com/straye-as/preflight/internal/logger"
	"github.com/straye-as/preflight/internal/probe"
	"github.com/straye-as/preflight/internal/repository"
	"github.com/straye-as/preflight/internal/service"
	"github.com/straye-as/preflight/internal/warehouse"
	"go.uber.org/zap"
)

// One-shot mode: run the connectivity checks once and exit. The exit
// code is the diagnosis; stdout carries the result line.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Refuse to run before touching any target: a partial configuration
	// must be reported in full, not discovered one check at a time.
	if err := cfg.Validate(); err != nil {
		return err
	}

	// History is best effort here: a broken history store must never
	// mask the diagnosis itself.
	var runRepo *repository.RunRepository
	if cfg.History.Enabled {
		db, err := database.NewHistoryStore(&cfg.History)
		if err != nil {
			log.Warn("Failed to open history store, run will not be recorded", zap.Error(err))
		} else if err := database.AutoMigrate(db); err != nil {
			log.Warn("Failed to migrate history store, run will not be recorded", zap.Error(err))
		} else {
			runRepo = repository.NewRunRepository(db)
		}
	}

	warehouseClient, err := warehouse.NewClient(&cfg.Warehouse, log)
	if err != nil {
		return fmt.Errorf("failed to initialize warehouse client: %w", err)
	}
	defer func() { _ = warehouseClient.Close() }()

	probes := []probe.Prober{
		probe.NewBlobProbe(&cfg.Storage, log),
		probe.NewPostgresProbe(&cfg.Database, log),
	}
	if warehouseClient.IsEnabled() {
		probes = append(probes, probe.NewWarehouseProbe(warehouseClient, log))
	}

	diagnosticService := service.NewDiagnosticService(probes, runRepo, log)

	// No deadline in one-shot mode; the caller owns the process lifetime.
	diagRun, err := diagnosticService.Execute(ctx, domain.TriggerManual, "")
	if err != nil {
		return err
	}

	fmt.Println(diagRun.Result)
	return nil
}
