package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureBlobStorage implements Storage against Azure Blob Storage.
type AzureBlobStorage struct {
	client *azblob.Client
	logger *zap.Logger
}

// NewAzureBlobStorage creates a new Azure Blob Storage instance. The
// client is built from the connection string without touching the
// service: connectivity is only exercised by the operations themselves.
func NewAzureBlobStorage(connectionString string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzureBlobStorage{client: client, logger: logger}, nil
}

// EnsureContainer creates the container and reports whether it was newly
// created. An already existing container is not an error.
func (s *AzureBlobStorage) EnsureContainer(ctx context.Context, container string) (bool, error) {
	_, err := s.client.CreateContainer(ctx, container, nil)
	switch {
	case err == nil:
		s.logger.Info("Container created", zap.String("container", container))
		return true, nil
	case bloberror.HasCode(err, bloberror.ContainerAlreadyExists):
		s.logger.Debug("Container already exists", zap.String("container", container))
		return false, nil
	default:
		return false, fmt.Errorf("failed to create container: %w", err)
	}
}

// Upload streams a blob into the given container and returns the number
// of bytes written.
func (s *AzureBlobStorage) Upload(ctx context.Context, container, blobName, contentType string, data io.Reader) (int64, error) {
	// Meter the stream so the size can be reported without buffering.
	reader := &meteredReader{src: data}

	_, err := s.client.UploadStream(ctx, container, blobName, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Info("Blob uploaded to Azure Blob Storage",
		zap.String("blob_name", blobName),
		zap.String("container", container),
		zap.String("content_type", contentType),
		zap.Int64("size", reader.n),
	)

	return reader.n, nil
}

// Download opens a blob for reading. The caller closes the reader.
func (s *AzureBlobStorage) Download(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *AzureBlobStorage) Delete(ctx context.Context, container, blobName string) error {
	_, err := s.client.DeleteBlob(ctx, container, blobName, nil)
	switch {
	case err == nil:
		s.logger.Info("Blob deleted from Azure Blob Storage",
			zap.String("blob_name", blobName),
			zap.String("container", container),
		)
		return nil
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		s.logger.Debug("Blob already deleted or not found",
			zap.String("blob_name", blobName),
			zap.String("container", container),
		)
		return nil
	default:
		return fmt.Errorf("failed to delete blob: %w", err)
	}
}

// meteredReader counts bytes as they pass through.
type meteredReader struct {
	src io.Reader
	n   int64
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.src.Read(p)
	m.n += int64(n)
	return n, err
}
