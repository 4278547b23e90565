package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/cache"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/face"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
	"github.com/saturnino-fabrica-de-software/facegate/internal/retry"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
	"github.com/saturnino-fabrica-de-software/facegate/internal/stage"
	"github.com/saturnino-fabrica-de-software/facegate/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting facegate",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("storage_backend", cfg.StorageBackend),
		slog.String("face_provider", cfg.FaceProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	objects, err := storage.NewObjectStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	gateway := storage.NewGateway(objects, cfg.Bucket)

	recognizer, err := face.NewRecognizer(ctx, cfg, gateway, logger)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}

	pgCache := cache.NewPGCache(pool)
	go cache.RunJanitor(ctx, pgCache, cfg.CacheCleanup, logger)

	m := metrics.New()

	faceService := service.NewFaceService(
		repository.NewFaceRepository(pool),
		recognizer,
		gateway,
		stage.New(cfg.StagingDir),
		logger,
		service.WithPolicy(retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			Initial:     cfg.RetryInitial,
			MaxInterval: retry.DefaultPolicy().MaxInterval,
			CallTimeout: cfg.CallTimeout,
		}),
		service.WithAuthPrefix(cfg.AuthKeyPrefix),
		service.WithRollback(cfg.RollbackOnFailure),
		service.WithAttributesCache(cache.NewAttributesCache(pgCache, cfg.AttributesCacheTTL, logger)),
		service.WithMetrics(m),
	)

	checks := map[string]handler.Pinger{
		"database": pool,
		"storage":  gateway,
	}
	if p, ok := recognizer.(handler.Pinger); ok {
		checks["recognition"] = p
	}

	router := api.NewRouter(logger, api.Dependencies{
		FaceService: faceService,
		Checks:      checks,
		Metrics:     m,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
