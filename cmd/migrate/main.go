package main

import (
	"fmt"
	"os"

	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/database"
)

// Applies the run history schema to the configured store. The API
// binary also migrates on startup; this exists to provision a shared
// postgres store ahead of first boot.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled, set HISTORY_ENABLED=true to migrate its store")
	}

	db, err := database.NewHistoryStore(&cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate history store: %w", err)
	}

	fmt.Printf("History schema migrated (%s)\n", cfg.History.Driver)
	return nil
}
