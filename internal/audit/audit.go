package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventFaceIndexed        EventType = "FACE_INDEXED"
	EventFaceSearched       EventType = "FACE_SEARCHED"
	EventAttributesDetected EventType = "ATTRIBUTES_DETECTED"
	EventFaceDeleted        EventType = "FACE_DELETED"
	EventCollectionEnsured  EventType = "COLLECTION_ENSURED"
)

// Event records one call against the recognition service. Biometric data
// never goes in here, only identifiers and outcomes.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Collection string            `json:"collection"`
	EventType  EventType         `json:"event_type"`
	StorageKey string            `json:"storage_key,omitempty"`
	FaceID     string            `json:"face_id,omitempty"`
	Provider   string            `json:"provider"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	l.logger.Log(ctx, level, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("collection", event.Collection),
		slog.String("provider", event.Provider),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
