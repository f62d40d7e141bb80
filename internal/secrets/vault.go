package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// VaultClient reads secrets from one Azure Key Vault, with an optional
// in-memory TTL cache in front of it.
type VaultClient struct {
	client    *azsecrets.Client
	vaultName string
	logger    *zap.Logger

	cacheEnabled bool
	cacheTTL     time.Duration
	mu           sync.RWMutex
	cache        map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// VaultConfig selects the vault and tunes the cache in front of it.
type VaultConfig struct {
	VaultName    string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewVaultClient connects to the named vault. Authentication goes
// through DefaultAzureCredential, which covers service principal
// variables, managed identity and the Azure CLI login.
func NewVaultClient(cfg *VaultConfig, logger *zap.Logger) (*VaultClient, error) {
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name is empty")
	}

	logger.Info("Connecting to Azure Key Vault",
		zap.String("vault", cfg.VaultName),
		zap.Bool("cache_enabled", cfg.CacheEnabled))

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Key Vault client: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	logger.Info("Key Vault client ready", zap.String("vault_url", vaultURL))

	return &VaultClient{
		client:       client,
		vaultName:    cfg.VaultName,
		logger:       logger,
		cacheEnabled: cfg.CacheEnabled,
		cacheTTL:     ttl,
		cache:        make(map[string]cachedSecret),
	}, nil
}

// GetSecret fetches the current version of a secret, serving it from
// cache while the TTL holds. Safe for concurrent use.
func (v *VaultClient) GetSecret(ctx context.Context, secretName string) (string, error) {
	if value, ok := v.fromCache(secretName); ok {
		v.logger.Debug("Secret served from cache", zap.String("secret", secretName))
		return value, nil
	}

	v.logger.Debug("Reading secret from Key Vault", zap.String("secret", secretName))

	resp, err := v.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		v.logger.Error("Key Vault read failed",
			zap.String("secret", secretName),
			zap.Error(err))
		return "", fmt.Errorf("failed to read secret %q: %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", secretName)
	}

	value := *resp.Value
	v.store(secretName, value)
	return value, nil
}

func (v *VaultClient) fromCache(name string) (string, bool) {
	if !v.cacheEnabled {
		return "", false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	cached, ok := v.cache[name]
	if !ok || time.Now().After(cached.expiresAt) {
		return "", false
	}
	return cached.value, true
}

func (v *VaultClient) store(name, value string) {
	if !v.cacheEnabled {
		return
	}

	v.mu.Lock()
	v.cache[name] = cachedSecret{value: value, expiresAt: time.Now().Add(v.cacheTTL)}
	v.mu.Unlock()
}
