package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/straye-as/preflight/internal/config"
	"go.uber.org/zap"
)

// Storage defines the interface for object store operations. Containers
// are addressed per call so the connectivity check can report whether
// its target container already existed.
type Storage interface {
	EnsureContainer(ctx context.Context, container string) (created bool, err error)
	Upload(ctx context.Context, container, blobName, contentType string, data io.Reader) (int64, error)
	Download(ctx context.Context, container, blobName string) (io.ReadCloser, error)
	Delete(ctx context.Context, container, blobName string) error
}

// NewStorage creates a new storage instance based on configuration.
// For local mode, blobs are stored on the local filesystem.
// For cloud/azure mode, blobs are stored in Azure Blob Storage.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.ConnectionString == "" {
			return nil, fmt.Errorf("connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.ConnectionString, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// LocalStorage implements Storage on the local filesystem. Containers
// map to directories under the base path.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a local store rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) containerDir(container string) string {
	return filepath.Join(s.basePath, container)
}

func (s *LocalStorage) blobPath(container, blobName string) string {
	return filepath.Join(s.basePath, container, blobName)
}

// EnsureContainer creates the container directory if it does not exist
// and reports whether it was newly created.
func (s *LocalStorage) EnsureContainer(ctx context.Context, container string) (bool, error) {
	dir := s.containerDir(container)

	switch _, err := os.Stat(dir); {
	case err == nil:
		return false, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("failed to stat container: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create container: %w", err)
	}
	return true, nil
}

// Upload writes a blob under the given container, replacing any
// existing blob of the same name.
func (s *LocalStorage) Upload(ctx context.Context, container, blobName, contentType string, data io.Reader) (int64, error) {
	fullPath := s.blobPath(container, blobName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(file, data)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return size, nil
}

// Download opens a blob for reading. The caller closes the reader.
func (s *LocalStorage) Download(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	file, err := os.Open(s.blobPath(container, blobName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob not found: %s", blobName)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalStorage) Delete(ctx context.Context, container, blobName string) error {
	err := os.Remove(s.blobPath(container, blobName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
