// Package storage keeps generated ledger workbooks on the local disk or in
// Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/motorserv/srf-api/internal/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned by Open for an unknown key.
var ErrObjectNotFound = errors.New("stored object not found")

// Storage stores opaque objects under generated keys.
type Storage interface {
	// Put writes data under a new key below prefix and returns the key and size.
	Put(ctx context.Context, prefix, filename, contentType string, data io.Reader) (string, int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewStorage builds the backend selected by storage.mode ("local", or "cloud"/"azure").
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// objectKey renders <prefix>/<yyyy>/<mm>/<uuid><ext>, always with forward slashes.
func objectKey(prefix, filename string, now time.Time) string {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	return path.Join(strings.Trim(prefix, "/"), now.Format("2006"), now.Format("01"), name)
}

// LocalStorage stores objects below a base directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates basePath if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Put(ctx context.Context, prefix, filename, contentType string, data io.Reader) (string, int64, error) {
	key := objectKey(prefix, filename, time.Now().UTC())
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(file, data)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return key, size, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a key to a path inside basePath and rejects keys escaping it.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}
