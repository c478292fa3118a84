package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/imovlocal/backend/internal/pkg/errors"
)

// LocalStore writes receipts to a directory served by the API
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipt directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory receipts are written to
func (s *LocalStore) Dir() string { return s.dir }

// Save writes data under key and returns its public URL
func (s *LocalStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := validKey(key); err != nil {
		return "", errors.StorageError("Failed to store receipt", err)
	}
	if err := ctx.Err(); err != nil {
		return "", errors.StorageError("Failed to store receipt", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", errors.StorageError("Failed to store receipt", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the file stored under key
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return errors.StorageError("Failed to delete receipt", err)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.StorageError("Failed to delete receipt", err)
	}
	return nil
}
