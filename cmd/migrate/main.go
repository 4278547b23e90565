package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, steps, version, force")
	steps := flag.Int("steps", 0, "Migrations to move (steps action) or target version (force action)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg.Environment)

	dbName, err := database.DatabaseName(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	db, err := database.OpenSQL(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	logger.Info("connected to database", slog.String("database", dbName))

	migrator, err := database.NewMigrator(db, dbName, database.WithMigrationLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("migrations completed")

	case "down":
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("last migration rolled back")

	case "steps":
		if *steps == 0 {
			return fmt.Errorf("steps flag is required for steps action")
		}
		if err := migrator.Steps(*steps); err != nil {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		logger.Info("migrations stepped", slog.Int("steps", *steps))

	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Info("current version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	case "force":
		if *steps == 0 {
			return fmt.Errorf("steps flag is required for force action")
		}
		if err := migrator.Force(*steps); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		logger.Info("migration version forced", slog.Int("version", *steps))

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, steps, version, force)", *action)
	}

	return nil
}
