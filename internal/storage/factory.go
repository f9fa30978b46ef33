package storage

import (
	"context"
	"fmt"

	"github.com/digitalforest/backend/internal/config"
)

// Supported object store drivers
const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

// New creates the object store selected by cfg.Driver
func New(ctx context.Context, cfg config.ObjectStoreConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case DriverS3, "":
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverMinio:
		store, err := NewMinioStore(cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown object store driver %q", cfg.Driver)
	}
}
