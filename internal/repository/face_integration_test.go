//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "facegate_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/facegate_test?sslmode=disable", host, port.Port())

	db, err := database.OpenSQL(ctx, dsn)
	require.NoError(t, err)
	migrator, err := database.NewMigrator(db, "facegate_test")
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	_ = migrator.Close()

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestFaceRepositoryIntegration(t *testing.T) {
	pool := setupPool(t)
	repo := repository.NewFaceRepository(pool)
	ctx := context.Background()

	alice := &domain.FaceRecord{
		FirstName:     "alice",
		LastName:      "smith",
		RecognitionID: "face-alice",
		StorageKey:    "authentications/alice_smith.jpeg",
	}
	entryID, err := repo.Insert(ctx, alice)
	require.NoError(t, err)
	require.NotEmpty(t, entryID)

	t.Run("lookup by recognition id", func(t *testing.T) {
		got, err := repo.FindByRecognitionID(ctx, "face-alice")
		require.NoError(t, err)
		assert.Equal(t, entryID, got.EntryID)
		assert.Equal(t, "alice smith", got.FullName())
	})

	t.Run("lookup is repeatable", func(t *testing.T) {
		first, err := repo.FindByEntryID(ctx, entryID)
		require.NoError(t, err)
		second, err := repo.FindByEntryID(ctx, entryID)
		require.NoError(t, err)
		assert.Equal(t, first.Row(), second.Row())
	})

	t.Run("duplicate recognition id is rejected", func(t *testing.T) {
		dup := &domain.FaceRecord{
			FirstName:     "bob",
			LastName:      "jones",
			RecognitionID: "face-alice",
			StorageKey:    "authentications/bob_jones.jpeg",
		}
		_, err := repo.Insert(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrConstraintViolation)

		got, err := repo.FindByRecognitionID(ctx, "face-alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.FirstName)
	})

	t.Run("missing entries", func(t *testing.T) {
		_, err := repo.FindByRecognitionID(ctx, "unknown")
		assert.ErrorIs(t, err, domain.ErrFaceNotFound)

		_, err = repo.FindByEntryID(ctx, "E1")
		assert.ErrorIs(t, err, domain.ErrFaceNotFound)
	})

	t.Run("list returns every record", func(t *testing.T) {
		_, err := repo.Insert(ctx, &domain.FaceRecord{
			FirstName:     "carol",
			LastName:      "white",
			RecognitionID: "face-carol",
			StorageKey:    "index/carol_white.png",
		})
		require.NoError(t, err)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "alice", all[0].FirstName)
		assert.Equal(t, "carol", all[1].FirstName)
	})
}
