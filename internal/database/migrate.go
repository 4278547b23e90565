package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaTable keeps facegate's version row apart from other tools sharing
// the database.
const schemaTable = "facegate_schema_migrations"

// Migrator applies the embedded schema. Only cmd/migrate drives it.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

type MigratorOption func(*Migrator)

// WithMigrationLogger routes golang-migrate progress lines to logger.
func WithMigrationLogger(logger *slog.Logger) MigratorOption {
	return func(m *Migrator) { m.logger = logger }
}

func NewMigrator(db *sql.DB, dbName string, opts ...MigratorOption) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		DatabaseName:    dbName,
		MigrationsTable: schemaTable,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres driver for %s: %w", dbName, err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}

	out := &Migrator{m: mg}
	for _, opt := range opts {
		opt(out)
	}
	if out.logger != nil {
		mg.Log = migrateLogger{logger: out.logger}
	}
	return out, nil
}

// Up applies everything pending. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	return m.ignoreNoChange("up", m.m.Up())
}

// Down reverts the newest applied migration.
func (m *Migrator) Down() error {
	return m.Steps(-1)
}

// Steps moves n migrations forward, or back when n is negative.
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	return m.ignoreNoChange(fmt.Sprintf("steps %d", n), m.m.Steps(n))
}

// Version reports 0 for a database that was never migrated.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force schema version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) ignoreNoChange(op string, err error) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return fmt.Errorf("migrate %s: %w", op, err)
}

// migrateLogger adapts slog to golang-migrate's Logger.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
