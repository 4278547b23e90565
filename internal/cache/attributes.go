package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const attributesKeyPrefix = "attributes:"

// Store is the byte-level cache behind AttributesCache
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AttributesCache keeps shaped attribute results per entry id. Records are
// immutable, so an entry only leaves the cache when its TTL runs out.
type AttributesCache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewAttributesCache(store Store, ttl time.Duration, logger *slog.Logger) *AttributesCache {
	return &AttributesCache{store: store, ttl: ttl, logger: logger}
}

func attributesKey(entryID string) string {
	return attributesKeyPrefix + entryID
}

// Get returns the cached result and true on a hit. Store failures are
// logged and reported as a miss; the caller falls back to detection.
func (c *AttributesCache) Get(ctx context.Context, entryID string) (*domain.AttributeResult, bool) {
	raw, err := c.store.Get(ctx, attributesKey(entryID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheExpired) {
			c.logger.Warn("attributes cache read failed", "entry_id", entryID, "error", err)
		}
		return nil, false
	}

	var result domain.AttributeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("attributes cache entry corrupt", "entry_id", entryID, "error", err)
		_ = c.store.Delete(ctx, attributesKey(entryID))
		return nil, false
	}

	return &result, true
}

// Put stores a result. A zero TTL disables caching.
func (c *AttributesCache) Put(ctx context.Context, entryID string, result *domain.AttributeResult) error {
	if c.ttl <= 0 || result == nil {
		return nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	if err := c.store.Set(ctx, attributesKey(entryID), raw, c.ttl); err != nil {
		return fmt.Errorf("store attributes: %w", err)
	}
	return nil
}
