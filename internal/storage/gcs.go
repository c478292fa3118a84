package storage

import (
	"context"
	stderrors "errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// GCSStore uploads receipts to a Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a client from a service account file or the
// application default credentials
func NewGCSStore(ctx context.Context, cfg config.GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Save uploads data and returns the object URL
func (s *GCSStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := validKey(key); err != nil {
		return "", errors.StorageError("Failed to store receipt", err)
	}
	name := objectName(s.prefix, key)

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errors.StorageError("Failed to upload receipt", err)
	}
	if err := w.Close(); err != nil {
		return "", errors.StorageError("Failed to upload receipt", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

// Delete removes the object stored under key
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return errors.StorageError("Failed to delete receipt", err)
	}
	err := s.client.Bucket(s.bucket).Object(objectName(s.prefix, key)).Delete(ctx)
	if err != nil && !stderrors.Is(err, storage.ErrObjectNotExist) {
		return errors.StorageError("Failed to delete receipt", err)
	}
	return nil
}

// Close releases the client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
