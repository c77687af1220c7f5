// Package filestore is the object storage contract behind table snapshots.
// Provider packages (minio) implement Store; the snapshot exporter only
// sees this package.
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is an S3-style bucket/key object store.
type Store interface {
	// Ping checks that the backend answers with the configured credentials.
	Ping(ctx context.Context) error

	Close() error

	// EnsureBucket creates bucket unless it exists.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject stores the content of r at key. size is -1 when unknown.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// ListObjects returns the objects under opts.Prefix in key order.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]ObjectInfo, error)

	// GetObject opens the object at key for reading. The caller closes it.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectInfo, error)

	// PresignGetURL returns a download link valid for ttl.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}
