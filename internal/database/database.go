// Package database opens the run history store. The history store is
// deliberately separate from the PostgreSQL target that the database
// check writes into: diagnostics must be recordable even when the
// target is the thing that is broken.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewHistoryStore opens the run history database. The driver is
// selected by configuration: sqlite for the default embedded store,
// postgres for shared deployments.
func NewHistoryStore(cfg *config.HistoryConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history store: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the history schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.DiagnosticRun{},
	)
}

// HealthCheck pings the history store
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// HealthCheckWithStats pings the history store and returns connection
// pool statistics for the readiness probe
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	if err := sqlDB.Ping(); err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
