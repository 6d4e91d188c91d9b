// Package storage abstracts the blob store that holds plant images and scans.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/autotraits-be/config"
)

// Permission selects what a signed URL grants
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Driver identifies a blob store backend
type Driver string

const (
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

// ErrNotFound is returned when a key holds no object
var ErrNotFound = errors.New("blob not found")

// Store uploads blobs and issues time-limited signed URLs for them
type Store interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	SignedURL(ctx context.Context, key string, perm Permission, expiry time.Duration) (string, error)
	Driver() Driver
}

// Open selects a Store implementation from configuration
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch Driver(cfg.BlobDriver) {
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case DriverMemory:
		return NewMemory("memory://blobs"), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.BlobDriver)
	}
}
