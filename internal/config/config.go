package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/preflight/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Warehouse WarehouseConfig
	History   HistoryConfig
	Scheduler SchedulerConfig
	AzureAd   AzureAdConfig
	ApiKey    ApiKeyConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Port        int
}

// StorageConfig holds the object store target of the storage check
type StorageConfig struct {
	// Mode selects the backend: "azure" for Azure Blob Storage (the
	// deployment target), "local" for a filesystem-backed store used in
	// development and tests
	Mode             string
	ConnectionString string
	// Container is the fixed container the storage check writes into
	Container     string
	LocalBasePath string
	// CleanupAfterRun deletes the test blob after a successful upload.
	// Off by default: the uploaded file doubles as an audit trail.
	CleanupAfterRun bool
}

// DatabaseConfig holds the PostgreSQL target of the database check.
// Port is kept as a string: it is passed through to the connection
// string exactly as provided.
type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout int
}

// WarehouseConfig holds configuration for the optional MS SQL Server
// data warehouse check. Disabled by default; credentials come from
// Azure Key Vault, never from environment variables.
type WarehouseConfig struct {
	// Enabled controls whether the warehouse check runs as a third stage
	Enabled bool
	// URL is the connection URL in format host:port/database (from WAREHOUSE-URL secret)
	URL string
	// User is the database username (from WAREHOUSE-USERNAME secret)
	User string
	// Password is the database password (from WAREHOUSE-PASSWORD secret)
	Password string
	// QueryTimeout is the timeout for the connectivity round-trip (seconds)
	QueryTimeout int
}

// HistoryConfig holds configuration for the run history store
type HistoryConfig struct {
	// Enabled controls whether diagnostic runs are persisted
	Enabled bool
	// Driver selects the store backend: "sqlite" or "postgres"
	Driver string
	// DSN is the data source name for the selected driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// SchedulerConfig holds configuration for periodic diagnostic runs
type SchedulerConfig struct {
	Enabled bool
	// CronExpr is a cron expression with a seconds field
	CronExpr string
	// RunTimeout bounds a single scheduled run (seconds)
	RunTimeout int
}

type AzureAdConfig struct {
	TenantId       string
	ClientId       string
	InstanceUrl    string
	RequiredScopes string
}

type ApiKeyConfig struct {
	Value string
}

// SecretsConfig selects where secrets are resolved from: "environment",
// "vault", or "auto" (environment in development, vault otherwise).
type SecretsConfig struct {
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout  int
	WriteTimeout int
	// RunTimeout bounds a diagnostic run triggered over the API (seconds)
	RunTimeout    int
	EnableSwagger bool
}

// CORSConfig holds the cross-origin policy. An AllowedOrigins entry of
// "*" opens the API to every origin.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds, preflight cache
}

// SecurityConfig holds the response hardening headers. Empty string
// values leave the corresponding header unset.
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int // seconds
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds the request throttling budgets. Whitelist
// entries bypass throttling; path entries ending in "/*" match as
// prefixes.
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int // unauthenticated, per client IP
	RequestsPerMinuteAuth int // authenticated, per user
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ConnectionString builds the PostgreSQL connection string for the
// database check target
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.ConnectTimeout,
	)
}

// QueryTimeoutDuration returns query timeout as duration
func (w *WarehouseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(w.QueryTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (h *HistoryConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(h.ConnMaxLifetime) * time.Second
}

// RunTimeoutDuration returns the scheduled run timeout as duration
func (s *SchedulerConfig) RunTimeoutDuration() time.Duration {
	return time.Duration(s.RunTimeout) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RunTimeoutDuration returns the API-triggered run timeout as duration
func (s *ServerConfig) RunTimeoutDuration() time.Duration {
	return time.Duration(s.RunTimeout) * time.Second
}

// Load reads configuration from an optional config file and the
// environment. Secrets are left as-is; use LoadWithSecrets to resolve
// them through Azure Key Vault.
func Load() (*Config, error) {
	// A .env file is a development convenience, its absence is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The check targets keep their conventional variable names
	bindTargetEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A handful of settings historically arrive as flat environment
	// variables rather than dotted config keys. They only fill in values
	// the config file left empty.
	for _, f := range []struct {
		dst *string
		key string
	}{
		{&cfg.ApiKey.Value, "ADMIN_API_KEY"},
		{&cfg.AzureAd.TenantId, "AZURE_TENANT_ID"},
		{&cfg.AzureAd.ClientId, "AZURE_CLIENT_ID"},
		{&cfg.AzureAd.RequiredScopes, "AZURE_REQUIRED_SCOPES"},
		{&cfg.Secrets.KeyVaultName, "AZURE_KEY_VAULT_NAME"},
	} {
		if *f.dst == "" {
			*f.dst = v.GetString(f.key)
		}
	}

	if v.GetBool("WAREHOUSE_ENABLED") {
		cfg.Warehouse.Enabled = true
	}

	// Warehouse credentials are deliberately absent here: they resolve
	// exclusively through Key Vault in LoadWithSecrets.

	return &cfg, nil
}

// bindTargetEnv binds the check target settings to the variable names the
// managed services are conventionally configured with
func bindTargetEnv(v *viper.Viper) {
	_ = v.BindEnv("storage.connectionString", "AZURE_STORAGE_CONNECTION_STRING")
	_ = v.BindEnv("database.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.name", "POSTGRES_DB")
	_ = v.BindEnv("database.user", "POSTGRES_USER")
	_ = v.BindEnv("database.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.sslMode", "POSTGRES_SSLMODE")
}

// Validate checks that every required target variable was provided.
// All missing variables are collected and reported in a single error so
// a misconfigured deployment is fixable in one pass.
func (c *Config) Validate() error {
	var missing []string

	if c.Storage.Mode != "local" && c.Storage.ConnectionString == "" {
		missing = append(missing, "AZURE_STORAGE_CONNECTION_STRING")
	}
	if c.Database.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if c.Database.Name == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if c.Database.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if c.Database.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// LoadWithSecrets loads configuration and then resolves secrets.
//
// The main secrets switch to Key Vault only when USE_AZURE_KEY_VAULT is
// "true" AND the environment is staging or production; otherwise they
// stay on environment variables. Warehouse credentials are the
// exception: whenever the warehouse check is enabled and a vault name
// is configured they come from Key Vault, in every environment.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.Warehouse.Enabled && cfg.Secrets.KeyVaultName != "" {
		// Best effort: the warehouse check is optional and must not
		// block startup.
		if err := loadWarehouseSecrets(ctx, cfg, logger); err != nil {
			logger.Warn("Failed to load warehouse secrets from Key Vault",
				zap.Error(err),
				zap.String("environment", cfg.App.Environment),
			)
		}
	}

	if strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) != "true" {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for main secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.App.Environment != "staging" && cfg.App.Environment != "production" {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for main secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := vaultProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}
	if !provider.IsVaultEnabled() {
		return nil, fmt.Errorf("vault provider not enabled despite USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Loading secrets from Azure Key Vault")

	// Each secret falls back to its environment variable when the vault
	// has no value; host, port and database name stay environment-specific
	// and are never vaulted.
	for _, b := range []struct {
		secret string
		env    string
		dst    *string
	}{
		{"storage-connection-string", "AZURE_STORAGE_CONNECTION_STRING", &cfg.Storage.ConnectionString},
		{"postgres-user", "POSTGRES_USER", &cfg.Database.User},
		{"postgres-password", "POSTGRES_PASSWORD", &cfg.Database.Password},
		{"azure-tenant-id", "AZURE_TENANT_ID", &cfg.AzureAd.TenantId},
		{"azure-client-id", "AZURE_CLIENT_ID", &cfg.AzureAd.ClientId},
		{"admin-api-key", "ADMIN_API_KEY", &cfg.ApiKey.Value},
	} {
		if value, err := provider.GetSecretOrEnv(ctx, b.secret, b.env); err == nil && value != "" {
			*b.dst = value
		}
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// loadWarehouseSecrets resolves the warehouse credentials from Key
// Vault. There is no environment fallback for these.
func loadWarehouseSecrets(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	logger.Info("Loading warehouse secrets from Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
		zap.String("environment", cfg.App.Environment),
	)

	provider, err := vaultProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client for warehouse: %w", err)
	}

	for _, b := range []struct {
		secret string
		dst    *string
	}{
		{"WAREHOUSE-URL", &cfg.Warehouse.URL},
		{"WAREHOUSE-USERNAME", &cfg.Warehouse.User},
		{"WAREHOUSE-PASSWORD", &cfg.Warehouse.Password},
	} {
		value, err := provider.GetSecret(ctx, b.secret)
		if err != nil {
			return fmt.Errorf("failed to get %s from Key Vault: %w", b.secret, err)
		}
		*b.dst = value
	}

	logger.Info("Warehouse credentials loaded from Key Vault successfully")
	return nil
}

// vaultProvider builds a vault-backed secrets provider from the
// configured vault settings.
func vaultProvider(cfg *Config, logger *zap.Logger) (*secrets.Provider, error) {
	return secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Straye Preflight")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Storage defaults. The connection string has no default: it must be
	// provided for the azure mode (see Validate).
	v.SetDefault("storage.mode", "azure")
	v.SetDefault("storage.container", "test-container")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cleanupAfterRun", false)

	// Database target defaults. Host, name, user and password have no
	// defaults: the check must fail fast when they are absent.
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "require")
	v.SetDefault("database.connectTimeout", 10)

	v.SetDefault("warehouse.enabled", false)
	v.SetDefault("warehouse.queryTimeout", 30)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "./preflight.db")
	v.SetDefault("history.maxOpenConns", 5)
	v.SetDefault("history.maxIdleConns", 2)
	v.SetDefault("history.connMaxLifetime", 300)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.cronExpr", "0 */15 * * * *") // every 15 minutes
	v.SetDefault("scheduler.runTimeout", 120)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("azuread.instanceUrl", "https://login.microsoftonline.com/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120)
	v.SetDefault("server.runTimeout", 90)
	v.SetDefault("server.enableSwagger", true)

	// No origins by default: cross-origin access is opt-in
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// HSTS stays off until the deployment terminates TLS itself
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 30)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 60)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db"})
}
