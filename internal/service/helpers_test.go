package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/retry"
	"github.com/saturnino-fabrica-de-software/facegate/internal/stage"
	"github.com/saturnino-fabrica-de-software/facegate/internal/storage"
)

// memObjectStore is an in-memory storage.ObjectStore
type memObjectStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	puts         int
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memObjectStore) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string, _ bool) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *memObjectStore) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memObjectStore) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjectStore) Ping(context.Context) error { return nil }

func (m *memObjectStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memObjectStore) keysWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

// gatedObjectStore holds reads under prefix until want puts under prefix
// have landed, forcing concurrent workflows to interleave.
type gatedObjectStore struct {
	*memObjectStore
	prefix string
	landed sync.WaitGroup
}

func newGatedObjectStore(prefix string, want int) *gatedObjectStore {
	g := &gatedObjectStore{memObjectStore: newMemObjectStore(), prefix: prefix}
	g.landed.Add(want)
	return g
}

func (g *gatedObjectStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string, public bool) error {
	err := g.memObjectStore.PutObject(ctx, key, body, size, contentType, public)
	if strings.HasPrefix(key, g.prefix) {
		g.landed.Done()
	}
	return err
}

func (g *gatedObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if strings.HasPrefix(key, g.prefix) {
		done := make(chan struct{})
		go func() {
			g.landed.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.memObjectStore.GetObject(ctx, key)
}

// memFaceRepository keeps records in insertion order and counts lookups
type memFaceRepository struct {
	mu      sync.Mutex
	records []domain.FaceRecord
	lookups int
}

func (r *memFaceRepository) Insert(_ context.Context, face *domain.FaceRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.RecognitionID == face.RecognitionID {
			return "", domain.ErrConstraintViolation
		}
	}
	face.EntryID = uuid.NewString()
	face.CreatedAt = time.Now()
	r.records = append(r.records, *face)
	return face.EntryID, nil
}

func (r *memFaceRepository) FindByRecognitionID(_ context.Context, recognitionID string) (*domain.FaceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	for i := range r.records {
		if r.records[i].RecognitionID == recognitionID {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrFaceNotFound
}

func (r *memFaceRepository) FindByEntryID(_ context.Context, entryID string) (*domain.FaceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	for i := range r.records {
		if r.records[i].EntryID == entryID {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrFaceNotFound
}

func (r *memFaceRepository) ListAll(context.Context) ([]domain.FaceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FaceRecord(nil), r.records...), nil
}

type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) IndexFace(ctx context.Context, image domain.ImageRef) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

func (m *MockRecognizer) SearchFacesByImage(ctx context.Context, image []byte) ([]domain.MatchResult, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchResult), args.Error(1)
}

func (m *MockRecognizer) DetectAttributes(ctx context.Context, image domain.ImageRef) (*domain.AttributeResult, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttributeResult), args.Error(1)
}

func (m *MockRecognizer) DeleteFace(ctx context.Context, faceID string) error {
	args := m.Called(ctx, faceID)
	return args.Error(0)
}

type MockFaceRepository struct {
	mock.Mock
}

func (m *MockFaceRepository) Insert(ctx context.Context, face *domain.FaceRecord) (string, error) {
	args := m.Called(ctx, face)
	return args.String(0), args.Error(1)
}

func (m *MockFaceRepository) FindByRecognitionID(ctx context.Context, recognitionID string) (*domain.FaceRecord, error) {
	args := m.Called(ctx, recognitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FaceRecord), args.Error(1)
}

func (m *MockFaceRepository) FindByEntryID(ctx context.Context, entryID string) (*domain.FaceRecord, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FaceRecord), args.Error(1)
}

func (m *MockFaceRepository) ListAll(ctx context.Context) ([]domain.FaceRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FaceRecord), args.Error(1)
}

// memAttributesCache counts hits so tests can tell detection from cache
type memAttributesCache struct {
	mu      sync.Mutex
	entries map[string]*domain.AttributeResult
	hits    int
}

func (c *memAttributesCache) Get(_ context.Context, entryID string) (*domain.AttributeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[entryID]
	if ok {
		c.hits++
	}
	return r, ok
}

func (c *memAttributesCache) Put(_ context.Context, entryID string, result *domain.AttributeResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]*domain.AttributeResult{}
	}
	c.entries[entryID] = result
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Initial:     time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		CallTimeout: time.Second,
	}
}

// faceImage returns base64 of an image large enough to carry a face in the
// in-process recognizer. Different seeds give different faces.
func faceImage(seed byte) (raw []byte, encoded string) {
	raw = bytes.Repeat([]byte{seed}, 2048)
	return raw, base64.StdEncoding.EncodeToString(raw)
}

type harness struct {
	store      *memObjectStore
	gateway    *storage.Gateway
	stager     *stage.Stager
	stagingDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemObjectStore()
	dir := t.TempDir()
	return &harness{
		store:      store,
		gateway:    storage.NewGateway(store, "face-bucket"),
		stager:     stage.New(dir),
		stagingDir: dir,
	}
}
