package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/retry"
	"github.com/saturnino-fabrica-de-software/facegate/internal/stage"
)

type FaceRepositoryInterface interface {
	Insert(ctx context.Context, face *domain.FaceRecord) (string, error)
	FindByRecognitionID(ctx context.Context, recognitionID string) (*domain.FaceRecord, error)
	FindByEntryID(ctx context.Context, entryID string) (*domain.FaceRecord, error)
	ListAll(ctx context.Context) ([]domain.FaceRecord, error)
}

type ObjectStoreInterface interface {
	Bucket() string
	Put(ctx context.Context, prefix, filename string, body io.Reader, size int64) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type StagerInterface interface {
	Stage(filename, payload string) (*stage.Staged, error)
}

type AttributesCacheInterface interface {
	Get(ctx context.Context, entryID string) (*domain.AttributeResult, bool)
	Put(ctx context.Context, entryID string, result *domain.AttributeResult) error
}

const compensationTimeout = 10 * time.Second

// FaceService runs the register, authenticate, attributes and list
// workflows. Every workflow returns a domain.Result; errors never escape.
type FaceService struct {
	repo       FaceRepositoryInterface
	recognizer provider.Recognizer
	store      ObjectStoreInterface
	stager     StagerInterface
	cache      AttributesCacheInterface
	metrics    *metrics.Metrics
	logger     *slog.Logger

	policy     retry.Policy
	authPrefix string
	rollback   bool
}

type Option func(*FaceService)

func WithPolicy(p retry.Policy) Option {
	return func(s *FaceService) { s.policy = p }
}

// WithAuthPrefix sets the key prefix for authentication probes
func WithAuthPrefix(prefix string) Option {
	return func(s *FaceService) { s.authPrefix = prefix }
}

// WithRollback deletes the stored object, and the indexed face when there is
// one, after a failed registration.
func WithRollback(enabled bool) Option {
	return func(s *FaceService) { s.rollback = enabled }
}

func WithAttributesCache(c AttributesCacheInterface) Option {
	return func(s *FaceService) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *FaceService) { s.metrics = m }
}

func NewFaceService(
	repo FaceRepositoryInterface,
	recognizer provider.Recognizer,
	store ObjectStoreInterface,
	stager StagerInterface,
	logger *slog.Logger,
	opts ...Option,
) *FaceService {
	s := &FaceService{
		repo:       repo,
		recognizer: recognizer,
		store:      store,
		stager:     stager,
		logger:     logger,
		policy:     retry.DefaultPolicy(),
		authPrefix: "authentications/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores the image under its filename, indexes the face and
// persists the record named after the "first_last" filename stem.
func (s *FaceService) Register(ctx context.Context, req domain.UploadRequest) (res domain.Result) {
	defer s.observe("register", time.Now(), &res)

	if req.Filename == "" || req.Data == "" {
		return s.fail("register", domain.ErrBadRequest.WithMessage("filename and data are required"))
	}

	if !domain.IsAllowedExtension(req.Filename) {
		return s.fail("register", domain.ErrUnsupportedExtension)
	}

	first, last, err := domain.ParseDisplayName(req.Filename)
	if err != nil {
		return s.fail("register", err)
	}

	key, err := s.upload(ctx, "", req)
	if err != nil {
		return s.fail("register", err)
	}

	var faceID string
	err = s.once(ctx, "index", func(ctx context.Context) error {
		var err error
		faceID, err = s.recognizer.IndexFace(ctx, domain.ImageRef{Bucket: s.store.Bucket(), Key: key})
		return recognitionError(err)
	})
	if err != nil {
		s.compensate(ctx, key, "")
		return s.fail("register", err)
	}

	record := &domain.FaceRecord{
		FirstName:     first,
		LastName:      last,
		RecognitionID: faceID,
		StorageKey:    key,
	}
	err = s.once(ctx, "insert", func(ctx context.Context) error {
		_, err := s.repo.Insert(ctx, record)
		return err
	})
	if err != nil {
		s.compensate(ctx, key, faceID)
		return s.fail("register", err)
	}

	s.logger.Info("face registered",
		"entry_id", record.EntryID,
		"recognition_id", faceID,
		"storage_key", key,
	)

	return domain.OK(domain.MsgRegistered)
}

// Authenticate uploads the probe under a request-scoped key, searches the
// collection and returns the first candidate that maps to a stored record.
func (s *FaceService) Authenticate(ctx context.Context, req domain.UploadRequest) (res domain.Result) {
	defer s.observe("authenticate", time.Now(), &res)

	if req.Filename == "" || req.Data == "" {
		return s.fail("authenticate", domain.ErrBadRequest.WithMessage("filename and data are required"))
	}

	// one directory per request so concurrent probes with the same
	// filename never read each other's bytes
	key, err := s.upload(ctx, s.authPrefix+uuid.NewString()+"/", req)
	if err != nil {
		return s.fail("authenticate", err)
	}

	var probe []byte
	err = s.do(ctx, "get", func(ctx context.Context) error {
		var err error
		probe, err = s.store.Get(ctx, key)
		return err
	})
	if err != nil {
		return s.fail("authenticate", err)
	}

	var matches []domain.MatchResult
	err = s.do(ctx, "search", func(ctx context.Context) error {
		var err error
		matches, err = s.recognizer.SearchFacesByImage(ctx, probe)
		return recognitionError(err)
	})
	if err != nil {
		return s.fail("authenticate", err)
	}

	for _, m := range matches {
		var record *domain.FaceRecord
		err := s.do(ctx, "lookup", func(ctx context.Context) error {
			var err error
			record, err = s.repo.FindByRecognitionID(ctx, m.FaceID)
			return err
		})
		if errors.Is(err, domain.ErrFaceNotFound) {
			s.logger.Warn("search candidate has no record", "recognition_id", m.FaceID)
			continue
		}
		if err != nil {
			return s.fail("authenticate", err)
		}

		s.logger.Info("face authenticated",
			"entry_id", record.EntryID,
			"confidence", m.Confidence,
		)
		return domain.Match(record.Row())
	}

	return domain.NoMatch()
}

// Attributes detects gender, age range and emotions for a registered entry
func (s *FaceService) Attributes(ctx context.Context, entryID string) (res domain.Result) {
	defer s.observe("attributes", time.Now(), &res)

	if entryID == "" {
		return s.fail("attributes", domain.ErrBadRequest.WithMessage("entryid is required"))
	}

	var record *domain.FaceRecord
	err := s.do(ctx, "lookup", func(ctx context.Context) error {
		var err error
		record, err = s.repo.FindByEntryID(ctx, entryID)
		return err
	})
	if errors.Is(err, domain.ErrFaceNotFound) {
		return domain.NotFound()
	}
	if err != nil {
		return s.fail("attributes", err)
	}

	attrs, err := s.detectAttributes(ctx, record)
	if err != nil {
		return s.fail("attributes", err)
	}

	return domain.OK(domain.AttributesResponse{
		Gender:   attrs.Gender,
		AgeRange: attrs.AgeRange,
		Emotions: attrs.Emotions,
		Name:     record.FullName(),
	})
}

// List returns every registered record as a face row, oldest first
func (s *FaceService) List(ctx context.Context) (res domain.Result) {
	defer s.observe("list", time.Now(), &res)

	var records []domain.FaceRecord
	err := s.do(ctx, "list", func(ctx context.Context) error {
		var err error
		records, err = s.repo.ListAll(ctx)
		return err
	})
	if err != nil {
		return s.fail("list", err)
	}

	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, records[i].Row())
	}
	return domain.OK(rows)
}

func (s *FaceService) detectAttributes(ctx context.Context, record *domain.FaceRecord) (*domain.AttributeResult, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, record.EntryID); ok {
			s.metrics.CacheLookup(true)
			return cached, nil
		}
		s.metrics.CacheLookup(false)
	}

	var attrs *domain.AttributeResult
	err := s.do(ctx, "detect_attributes", func(ctx context.Context) error {
		var err error
		attrs, err = s.recognizer.DetectAttributes(ctx, domain.ImageRef{Bucket: s.store.Bucket(), Key: record.StorageKey})
		return recognitionError(err)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, record.EntryID, attrs); err != nil {
			s.logger.Warn("cache attributes failed", "entry_id", record.EntryID, "error", err)
		}
	}
	return attrs, nil
}

// upload stages the payload and stores it under prefix+filename. The
// staged copy is removed before returning.
func (s *FaceService) upload(ctx context.Context, prefix string, req domain.UploadRequest) (string, error) {
	staged, err := s.stager.Stage(req.Filename, req.Data)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := staged.Cleanup(); err != nil {
			s.logger.Warn("staging cleanup failed", "path", staged.Path, "error", err)
		}
	}()

	var key string
	err = s.once(ctx, "put", func(ctx context.Context) error {
		f, err := staged.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		key, err = s.store.Put(ctx, prefix, req.Filename, f, staged.Size)
		return err
	})
	return key, err
}

// compensate undoes a partial registration when rollback is enabled
func (s *FaceService) compensate(ctx context.Context, key, faceID string) {
	if !s.rollback {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if faceID != "" {
		if err := s.recognizer.DeleteFace(ctx, faceID); err != nil {
			s.logger.Error("rollback delete face failed", "recognition_id", faceID, "error", err)
		}
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("rollback delete object failed", "storage_key", key, "error", err)
		return
	}
	s.logger.Info("registration rolled back", "storage_key", key, "recognition_id", faceID)
}

func (s *FaceService) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.track(op, retry.Do(ctx, s.policy, op, fn))
}

func (s *FaceService) once(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.track(op, retry.Once(ctx, s.policy, op, fn))
}

func (s *FaceService) track(op string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && (appErr.Code == domain.ErrUpstream.Code || appErr.Code == domain.ErrUpstreamTimeout.Code) {
		s.metrics.UpstreamFailure(op, appErr.Code)
	}
	return err
}

// fail converts err into a 400 result carrying a client-safe message
func (s *FaceService) fail(workflow string, err error) domain.Result {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrUpstream.WithError(err)
	}

	switch appErr.Code {
	case domain.ErrUpstream.Code, domain.ErrUpstreamTimeout.Code, domain.ErrInternal.Code:
		s.logger.Error("workflow failed", "workflow", workflow, "code", appErr.Code, "error", err)
	default:
		s.logger.Info("workflow rejected", "workflow", workflow, "code", appErr.Code, "error", err)
	}

	return domain.Failure(appErr.Message)
}

func (s *FaceService) observe(workflow string, start time.Time, res *domain.Result) {
	s.metrics.ObserveWorkflow(workflow, string(res.Status), time.Since(start))
}

// recognitionError lifts provider sentinels into domain errors, and marks
// permanent provider failures, so the retry loop stops on them
func recognitionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, provider.ErrNoFaceDetected):
		return domain.ErrNoFaceDetected.WithError(err)
	case errors.Is(err, provider.ErrFaceNotFound):
		return domain.ErrFaceNotFound.WithError(err)
	case errors.Is(err, provider.ErrPermanent):
		return retry.Permanent(err)
	}
	return err
}
