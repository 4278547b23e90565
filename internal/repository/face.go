package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const faceColumns = `entry_id::text, first_name, last_name, recognition_id, storage_key, created_at`

type FaceRepository struct {
	pool PgxPool
}

func NewFaceRepository(pool PgxPool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

var _ FaceRepositoryInterface = (*FaceRepository)(nil)

// Insert stores a new record and returns its generated entry id. A second
// record with the same recognition id fails with ErrConstraintViolation and
// leaves the first untouched.
func (r *FaceRepository) Insert(ctx context.Context, face *domain.FaceRecord) (string, error) {
	query := `
		INSERT INTO faces (entry_id, first_name, last_name, recognition_id, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	entryID := uuid.New()

	err := r.pool.QueryRow(ctx, query,
		entryID,
		face.FirstName,
		face.LastName,
		face.RecognitionID,
		face.StorageKey,
	).Scan(&face.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return "", domain.ErrConstraintViolation.WithError(err)
		}
		return "", fmt.Errorf("insert face: %w", err)
	}

	face.EntryID = entryID.String()
	return face.EntryID, nil
}

func (r *FaceRepository) FindByRecognitionID(ctx context.Context, recognitionID string) (*domain.FaceRecord, error) {
	query := `SELECT ` + faceColumns + ` FROM faces WHERE recognition_id = $1`

	face, err := scanFace(r.pool.QueryRow(ctx, query, recognitionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get face by recognition_id: %w", err)
	}

	return face, nil
}

// FindByEntryID looks a record up by entry id. Ids that are not UUIDs cannot
// exist and are reported as not found without querying.
func (r *FaceRepository) FindByEntryID(ctx context.Context, entryID string) (*domain.FaceRecord, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, domain.ErrFaceNotFound
	}

	query := `SELECT ` + faceColumns + ` FROM faces WHERE entry_id = $1`

	face, err := scanFace(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get face by entry_id: %w", err)
	}

	return face, nil
}

// ListAll returns every record in insertion order, following the seq column.
func (r *FaceRepository) ListAll(ctx context.Context) ([]domain.FaceRecord, error) {
	query := `SELECT ` + faceColumns + ` FROM faces ORDER BY seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	faces := make([]domain.FaceRecord, 0)
	for rows.Next() {
		face, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, *face)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}

	return faces, nil
}

func scanFace(row pgx.Row) (*domain.FaceRecord, error) {
	var face domain.FaceRecord
	err := row.Scan(
		&face.EntryID,
		&face.FirstName,
		&face.LastName,
		&face.RecognitionID,
		&face.StorageKey,
		&face.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &face, nil
}
