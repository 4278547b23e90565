package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/rekognition"
)

// ProviderType defines supported face recognition provider types
type ProviderType string

const (
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud, for prod)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the in-process deterministic provider (local, for dev/test)
	ProviderTypeMock ProviderType = "mock"
)

// NewRecognizer creates a Recognizer based on configuration.
//
// Environment variables:
//   - FACE_PROVIDER: "rekognition" or "mock" (default: "rekognition")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-2")
//   - REKOGNITION_COLLECTION: collection id (default: "database-faces")
//
// The mock provider reads stored images back through images.
func NewRecognizer(ctx context.Context, cfg *config.Config, images mock.ImageSource, logger *slog.Logger) (provider.Recognizer, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeRekognition, "":
		return createRekognitionProvider(ctx, cfg, logger)

	case ProviderTypeMock:
		return mock.New(images), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.FaceProvider, ProviderTypeRekognition, ProviderTypeMock)
	}
}

func createRekognitionProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.Recognizer, error) {
	rekogConfig := rekognition.Config{
		Region:       cfg.AWSRegion,
		CollectionID: cfg.Collection,
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig,
		rekognition.WithAuditLogger(audit.NewSlogLogger(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider for collection %s: %w", cfg.Collection, err)
	}

	return prov, nil
}
