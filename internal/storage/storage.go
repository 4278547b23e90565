// Package storage uploads and fetches face images in an S3-compatible
// object store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by backends when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the backend contract shared by S3 and MinIO.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string, public bool) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
