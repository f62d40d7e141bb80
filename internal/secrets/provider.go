// Package secrets resolves application secrets from the environment or
// from Azure Key Vault, selected by configuration.
package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource names a secret backend.
type SecretSource string

const (
	// SourceEnvironment reads secrets from environment variables
	SourceEnvironment SecretSource = "environment"
	// SourceVault reads secrets from Azure Key Vault
	SourceVault SecretSource = "vault"
	// SourceAuto picks the backend by environment: vault in staging and
	// production, environment variables everywhere else
	SourceAuto SecretSource = "auto"
)

// Provider resolves secrets from the configured backend.
type Provider struct {
	source      SecretSource
	vaultClient *VaultClient
	logger      *zap.Logger
	environment string
}

// ProviderConfig selects the backend and carries vault settings.
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string // development, staging or production
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewProvider builds a provider for the configured source. The vault
// client is only constructed when the resolved source is vault.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := resolveSource(cfg.Source, cfg.Environment)
	if source != cfg.Source {
		logger.Info("Secret source resolved",
			zap.String("source", string(source)),
			zap.String("environment", cfg.Environment))
	}

	p := &Provider{
		source:      source,
		logger:      logger,
		environment: cfg.Environment,
	}

	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vc, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		p.vaultClient = vc
	}

	logger.Info("Secret provider ready",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment))

	return p, nil
}

// resolveSource maps the auto source onto a concrete backend.
func resolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// GetSecret resolves one secret. For the environment source the name is
// the variable name; for vault it is the Key Vault secret name.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		return fromEnv(secretName)
	case SourceVault:
		if p.vaultClient == nil {
			return "", fmt.Errorf("vault client is not initialized")
		}
		return p.vaultClient.GetSecret(ctx, secretName)
	default:
		return "", fmt.Errorf("unsupported secret source: %s", p.source)
	}
}

func fromEnv(name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("environment variable %s is not set", name)
}

// GetSecretOrEnv resolves a secret but lets an explicitly set
// environment variable win, even in vault mode.
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the resolved secret source.
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled reports whether secrets come from Key Vault.
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
