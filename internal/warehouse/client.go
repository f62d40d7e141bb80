// Package warehouse provides read-only connectivity to the MS SQL Server
// data warehouse. The preflight service only verifies that the warehouse
// is reachable and answers queries; it never writes to it.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/straye-as/preflight/internal/config"
	"go.uber.org/zap"
)

const (
	// Pool sizing for a client that only ever runs health probes
	defaultMaxOpenConns    = 2
	defaultMaxIdleConns    = 1
	defaultConnMaxLifetime = 5 * time.Minute

	defaultHealthCheckTimeout = 5 * time.Second

	defaultPort = "1433"
)

// versionQuery is the read-only round-trip the warehouse stage performs
const versionQuery = "SELECT @@VERSION AS version"

// Client provides read-only access to the MS SQL Server data warehouse.
// A nil *Client is valid and behaves as a disabled warehouse.
type Client struct {
	db           *sql.DB
	config       *config.WarehouseConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus is the health check result for the warehouse connection,
// including connection pool statistics.
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient creates a warehouse client from the configuration. It
// returns nil when the warehouse check is disabled or incompletely
// configured. Opening is lazy: no connection is made until the first
// query, so a dead warehouse surfaces in its own stage rather than
// during wiring.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Warehouse check disabled")
		return nil, nil
	}

	if missing := missingCredentials(cfg); len(missing) > 0 {
		logger.Warn("Warehouse check enabled but credentials are incomplete, stage will be skipped",
			zap.Strings("missing", missing),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	logger.Info("Warehouse client initialized",
		zap.Int("query_timeout_seconds", cfg.QueryTimeout),
	)

	return &Client{
		db:           db,
		config:       cfg,
		logger:       logger,
		queryTimeout: cfg.QueryTimeoutDuration(),
	}, nil
}

func missingCredentials(cfg *config.WarehouseConfig) []string {
	var missing []string
	for _, c := range []struct {
		name  string
		value string
	}{
		{"url", cfg.URL},
		{"user", cfg.User},
		{"password", cfg.Password},
	} {
		if c.value == "" {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// buildConnectionString renders the config as a sqlserver:// URL. The
// configured URL is host:port/database; port and database are optional.
func buildConnectionString(cfg *config.WarehouseConfig) (string, error) {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, hasPort := strings.Cut(hostPort, ":")
	if !hasPort {
		port = defaultPort
	}

	query := url.Values{
		"encrypt":                {"true"},
		"TrustServerCertificate": {"false"},
		"connection timeout":     {"30"},
	}
	if database != "" {
		query.Set("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// Close releases the connection pool. Safe on a nil client.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing warehouse connection")
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close warehouse connection: %w", err)
	}
	return nil
}

// HealthCheck pings the warehouse and reports latency and pool
// statistics. A nil or unconfigured client reports status "disabled".
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{Status: "disabled"}
	}

	ctx, cancel := ensureDeadline(ctx, defaultHealthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	status := poolHealth(c.db.Stats(), latency)
	if err != nil {
		c.logger.Warn("Warehouse health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
	} else {
		status.Status = "healthy"
	}

	return status
}

func poolHealth(stats sql.DBStats, latency time.Duration) *HealthStatus {
	return &HealthStatus{
		Latency:    latency,
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}
}

// Version executes the read-only version round-trip and returns the
// first line of the server version banner.
func (c *Client) Version(ctx context.Context) (string, error) {
	if c == nil || c.db == nil {
		return "", fmt.Errorf("warehouse client not initialized")
	}

	ctx, cancel := ensureDeadline(ctx, c.queryTimeout)
	defer cancel()

	start := time.Now()

	var version string
	if err := c.db.QueryRowContext(ctx, versionQuery).Scan(&version); err != nil {
		c.logger.Error("Warehouse version query failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return "", fmt.Errorf("version query failed: %w", err)
	}

	c.logger.Debug("Warehouse version query completed",
		zap.Duration("duration", time.Since(start)),
	)

	return firstLine(version), nil
}

// IsEnabled reports whether the client is initialized and ready for
// queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// ensureDeadline returns ctx unchanged when it already carries a
// deadline, otherwise a child context with the given timeout.
func ensureDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// firstLine trims a multi-line banner such as @@VERSION down to the
// line that identifies the server.
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
