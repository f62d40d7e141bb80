package probe_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/domain"
	"github.com/straye-as/preflight/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBlobProbe_Run(t *testing.T) {
	basePath := t.TempDir()
	cfg := &config.StorageConfig{
		Mode:          "local",
		Container:     "test-container",
		LocalBasePath: basePath,
	}
	p := probe.NewBlobProbe(cfg, zap.NewNop())

	assert.Equal(t, domain.StageStorage, p.Name())

	msg, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "container test-container created")
	assert.Contains(t, msg, "uploaded test-file-")

	// Second run finds the container in place and uploads a new blob
	msg, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "container test-container exists")

	entries, err := os.ReadDir(filepath.Join(basePath, "test-container"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	data, err := os.ReadFile(filepath.Join(basePath, "test-container", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Connectivity test file")
	assert.Contains(t, string(data), "Uploaded at:")
	assert.Contains(t, string(data), "File ID:")
}

func TestBlobProbe_Run_CleanupAfterRun(t *testing.T) {
	basePath := t.TempDir()
	cfg := &config.StorageConfig{
		Mode:            "local",
		Container:       "test-container",
		LocalBasePath:   basePath,
		CleanupAfterRun: true,
	}
	p := probe.NewBlobProbe(cfg, zap.NewNop())

	msg, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "uploaded test-file-")

	entries, err := os.ReadDir(filepath.Join(basePath, "test-container"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBlobProbe_Run_ClientFailure(t *testing.T) {
	// Azure mode without a connection string cannot build a client, which
	// must fail this stage instead of the wiring
	cfg := &config.StorageConfig{
		Mode:      "azure",
		Container: "test-container",
	}
	p := probe.NewBlobProbe(cfg, zap.NewNop())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection string")
}
