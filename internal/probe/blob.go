package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/domain"
	"github.com/straye-as/preflight/internal/storage"
	"go.uber.org/zap"
)

// BlobProbe verifies object store connectivity by ensuring the test
// container exists and uploading a uniquely named text blob into it.
type BlobProbe struct {
	cfg    *config.StorageConfig
	logger *zap.Logger

	// newStorage builds the store inside Run so that client construction
	// failures (e.g. a malformed connection string) surface as a failure
	// of this stage rather than during wiring
	newStorage func() (storage.Storage, error)
}

// NewBlobProbe creates the storage stage
func NewBlobProbe(cfg *config.StorageConfig, logger *zap.Logger) *BlobProbe {
	p := &BlobProbe{
		cfg:    cfg,
		logger: logger,
	}
	p.newStorage = func() (storage.Storage, error) {
		return storage.NewStorage(cfg, logger)
	}
	return p
}

// Name returns the stage name
func (p *BlobProbe) Name() domain.StageName {
	return domain.StageStorage
}

// Run ensures the container exists, uploads a test blob and optionally
// cleans it up again
func (p *BlobProbe) Run(ctx context.Context) (string, error) {
	store, err := p.newStorage()
	if err != nil {
		return "", err
	}

	created, err := store.EnsureContainer(ctx, p.cfg.Container)
	if err != nil {
		return "", err
	}

	containerState := "exists"
	if created {
		containerState = "created"
	}

	blobName := fmt.Sprintf("test-file-%s.txt", uuid.New())
	content := fmt.Sprintf("Connectivity test file\nUploaded at: %s\nFile ID: %s",
		time.Now().UTC().Format(time.RFC3339), uuid.New())

	size, err := store.Upload(ctx, p.cfg.Container, blobName, "text/plain", strings.NewReader(content))
	if err != nil {
		return "", err
	}

	p.logger.Info("Test blob uploaded",
		zap.String("container", p.cfg.Container),
		zap.String("blobName", blobName),
		zap.Int64("size", size),
	)

	if p.cfg.CleanupAfterRun {
		// Best effort: a leftover test blob does not fail the stage
		if err := store.Delete(ctx, p.cfg.Container, blobName); err != nil {
			p.logger.Warn("Failed to clean up test blob",
				zap.String("blobName", blobName),
				zap.Error(err),
			)
		}
	}

	return fmt.Sprintf("container %s %s, uploaded %s (%d bytes)",
		p.cfg.Container, containerState, blobName, size), nil
}
