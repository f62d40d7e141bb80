package probe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver
	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/domain"
	"go.uber.org/zap"
)

// createTestTable is the table the database stage writes into. Kept
// append-only so repeated runs build up an audit trail on the target.
const createTestTable = `
CREATE TABLE IF NOT EXISTS test_table (
	id SERIAL PRIMARY KEY,
	test_name VARCHAR(100) NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	test_data JSONB
)`

const insertTestRecord = `INSERT INTO test_table (test_name, test_data) VALUES ($1, $2) RETURNING id`

// PostgresProbe verifies database connectivity by creating the test
// table if needed and inserting a record with a JSONB payload, all in
// one transaction.
type PostgresProbe struct {
	cfg    *config.DatabaseConfig
	logger *zap.Logger

	// openDB is swapped out in tests
	openDB func() (*sql.DB, error)
}

// NewPostgresProbe creates the database stage
func NewPostgresProbe(cfg *config.DatabaseConfig, logger *zap.Logger) *PostgresProbe {
	p := &PostgresProbe{
		cfg:    cfg,
		logger: logger,
	}
	p.openDB = func() (*sql.DB, error) {
		return sql.Open("postgres", cfg.ConnectionString())
	}
	return p
}

// Name returns the stage name
func (p *PostgresProbe) Name() domain.StageName {
	return domain.StageDatabase
}

// Run connects, ensures the test table exists and inserts one record.
// The connection is closed on every path, and the transaction is rolled
// back if anything fails before commit.
func (p *PostgresProbe) Run(ctx context.Context) (string, error) {
	db, err := p.openDB()
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The check exercises exactly one connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("failed to connect to database: %w", err)
	}

	p.logger.Debug("Connected to PostgreSQL",
		zap.String("host", p.cfg.Host),
		zap.String("database", p.cfg.Name),
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createTestTable); err != nil {
		return "", fmt.Errorf("failed to create test table: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"file_upload": "success",
		"test_id":     uuid.New().String(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode test payload: %w", err)
	}

	testName := fmt.Sprintf("test record - %s", time.Now().UTC().Format("2006-01-02 15:04:05"))

	var id int64
	if err := tx.QueryRowContext(ctx, insertTestRecord, testName, string(payload)).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert test record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.logger.Info("Test record inserted",
		zap.Int64("id", id),
		zap.String("database", p.cfg.Name),
	)

	return fmt.Sprintf("inserted test record %d into test_table", id), nil
}
