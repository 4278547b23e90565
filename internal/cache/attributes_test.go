package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleAttributes() *domain.AttributeResult {
	return &domain.AttributeResult{
		Gender:   domain.Gender{Value: "Female", Confidence: 99.1},
		AgeRange: domain.AgeRange{Low: 25, High: 35},
		Emotions: []domain.Emotion{
			{Type: "HAPPY", Confidence: 90},
			{Type: "CALM", Confidence: 8},
		},
	}
}

func TestAttributesCache_RoundTrip(t *testing.T) {
	store := newMemoryStore()
	c := NewAttributesCache(store, time.Hour, discardLogger())
	ctx := context.Background()

	_, ok := c.Get(ctx, "entry-1")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "entry-1", sampleAttributes()))
	assert.Equal(t, time.Hour, store.ttls["attributes:entry-1"])

	got, ok := c.Get(ctx, "entry-1")
	require.True(t, ok)
	assert.Equal(t, sampleAttributes(), got)
}

func TestAttributesCache_ZeroTTLDisablesCaching(t *testing.T) {
	store := newMemoryStore()
	c := NewAttributesCache(store, 0, discardLogger())

	require.NoError(t, c.Put(context.Background(), "entry-1", sampleAttributes()))
	assert.Empty(t, store.entries)
}

func TestAttributesCache_StoreFailureIsMiss(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("database unavailable")
	c := NewAttributesCache(store, time.Hour, discardLogger())

	got, ok := c.Get(context.Background(), "entry-1")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestAttributesCache_CorruptEntryIsEvicted(t *testing.T) {
	store := newMemoryStore()
	store.entries["attributes:entry-1"] = []byte("{not json")
	c := NewAttributesCache(store, time.Hour, discardLogger())

	_, ok := c.Get(context.Background(), "entry-1")
	assert.False(t, ok)
	assert.NotContains(t, store.entries, "attributes:entry-1")
}
