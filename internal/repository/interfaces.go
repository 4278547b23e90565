package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by repositories. pgxmock
// pools satisfy it as well.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// FaceRepositoryInterface defines operations for face data access
type FaceRepositoryInterface interface {
	Insert(ctx context.Context, face *domain.FaceRecord) (string, error)
	FindByRecognitionID(ctx context.Context, recognitionID string) (*domain.FaceRecord, error)
	FindByEntryID(ctx context.Context, entryID string) (*domain.FaceRecord, error)
	ListAll(ctx context.Context) ([]domain.FaceRecord, error)
}
