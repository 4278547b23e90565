package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Gateway applies the upload rules on top of an ObjectStore.
type Gateway struct {
	store  ObjectStore
	bucket string
}

func NewGateway(store ObjectStore, bucket string) *Gateway {
	return &Gateway{store: store, bucket: bucket}
}

func (g *Gateway) Bucket() string {
	return g.bucket
}

// Put uploads body under prefix+filename as a public object with content type
// application/<ext>. Files that are not .jpeg or .png are rejected before the
// backend is contacted.
func (g *Gateway) Put(ctx context.Context, prefix, filename string, body io.Reader, size int64) (string, error) {
	if !domain.IsAllowedExtension(filename) {
		return "", domain.ErrUnsupportedExtension
	}

	key := prefix + filename
	if err := g.store.PutObject(ctx, key, body, size, domain.ContentType(filename), true); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// Get returns the object bytes, or domain.ErrNotFound when the key is absent.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := g.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, domain.ErrNotFound.WithMessage("Stored image not found").WithError(fmt.Errorf("get %s: %w", key, err))
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Delete removes an object. Used to compensate failed registrations.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	if err := g.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}
