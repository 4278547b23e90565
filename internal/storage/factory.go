package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
)

// BackendType selects the object store implementation.
type BackendType string

const (
	BackendS3    BackendType = "s3"
	BackendMinIO BackendType = "minio"
)

// NewObjectStore builds the backend named by STORAGE_BACKEND.
func NewObjectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ObjectStore, error) {
	switch BackendType(cfg.StorageBackend) {
	case BackendS3, "":
		return NewS3Store(ctx, S3Config{Region: cfg.AWSRegion, Bucket: cfg.Bucket})
	case BackendMinIO:
		store, err := NewMinIOStore(MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.Bucket,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn("ensure minio bucket", "error", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: s3, minio)", cfg.StorageBackend)
	}
}
