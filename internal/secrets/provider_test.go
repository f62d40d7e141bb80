package secrets_test

import (
	"context"
	"testing"

	"github.com/straye-as/preflight/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProvider_AutoSource(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name        string
		environment string
		wantSource  secrets.SecretSource
	}{
		{
			name:        "development resolves to environment",
			environment: "development",
			wantSource:  secrets.SourceEnvironment,
		},
		{
			name:        "local resolves to environment",
			environment: "local",
			wantSource:  secrets.SourceEnvironment,
		},
		{
			name:        "empty resolves to environment",
			environment: "",
			wantSource:  secrets.SourceEnvironment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := secrets.NewProvider(&secrets.ProviderConfig{
				Source:      secrets.SourceAuto,
				Environment: tt.environment,
			}, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, provider.Source())
			assert.False(t, provider.IsVaultEnabled())
		})
	}
}

func TestNewProvider_VaultRequiresName(t *testing.T) {
	_, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source: secrets.SourceVault,
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault name required")
}

func TestNewProvider_AutoUsesVaultOutsideDevelopment(t *testing.T) {
	// Auto in staging resolves to vault; without a vault name the
	// provider must refuse to initialize
	_, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:      secrets.SourceAuto,
		Environment: "staging",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault name required")
}

func TestProvider_GetSecret_Environment(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_SECRET", "from-env")

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source: secrets.SourceEnvironment,
	}, zap.NewNop())
	require.NoError(t, err)

	value, err := provider.GetSecret(context.Background(), "PREFLIGHT_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestProvider_GetSecret_EnvironmentMissing(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_SECRET", "")

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source: secrets.SourceEnvironment,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = provider.GetSecret(context.Background(), "PREFLIGHT_TEST_SECRET")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREFLIGHT_TEST_SECRET")
}

func TestProvider_GetSecretOrEnv_EnvOverrideWins(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_SECRET", "configured")
	t.Setenv("PREFLIGHT_TEST_OVERRIDE", "override")

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source: secrets.SourceEnvironment,
	}, zap.NewNop())
	require.NoError(t, err)

	// The override variable takes precedence over the configured source
	value, err := provider.GetSecretOrEnv(context.Background(), "PREFLIGHT_TEST_SECRET", "PREFLIGHT_TEST_OVERRIDE")
	require.NoError(t, err)
	assert.Equal(t, "override", value)
}
