package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"postergen/internal/infra"
)

// Store persists generated assets under slash-separated keys.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// New returns the store selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *infra.Config) (Store, error) {
	switch cfg.StorageDriver {
	case infra.StorageDriverMinio:
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	case infra.StorageDriverFS, "":
		return NewFileStore(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}

// BundlePrefix returns a unique, date-partitioned prefix for one
// generation's assets, e.g. "posters/2025/05/20/<uuid>".
func BundlePrefix(now time.Time) string {
	return path.Join("posters", now.UTC().Format("2006/01/02"), uuid.NewString())
}
