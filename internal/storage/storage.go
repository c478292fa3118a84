package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/domain/payment"
)

// New builds the receipt store selected by cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig) (payment.ReceiptStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// validKey rejects keys that could escape the receipt directory or prefix
func validKey(key string) error {
	if key == "" || key != path.Base(key) || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

func objectName(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
