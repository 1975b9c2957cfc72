package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureBlobStorage stores objects as block blobs in one container.
type AzureBlobStorage struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

// NewAzureBlobStorage connects with a connection string and ensures the container exists.
func NewAzureBlobStorage(connectionString, container string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Azure Blob Storage initialized", zap.String("container", container))
	return &AzureBlobStorage{client: client, container: container, logger: logger}, nil
}

func (s *AzureBlobStorage) Put(ctx context.Context, prefix, filename, contentType string, data io.Reader) (string, int64, error) {
	key := objectKey(prefix, filename, time.Now().UTC())
	counter := &countingReader{r: data}

	_, err := s.client.UploadStream(ctx, s.container, key, counter, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		Metadata:    map[string]*string{"filename": &filename},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Info("blob uploaded",
		zap.String("key", key),
		zap.String("container", s.container),
		zap.Int64("size", counter.n),
	)
	return key, counter.n, nil
}

func (s *AzureBlobStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

func (s *AzureBlobStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
