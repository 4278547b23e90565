package rekognition

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

var (
	// ErrCollectionNotFound indicates that the specified collection does not exist
	ErrCollectionNotFound = fmt.Errorf("rekognition collection not found: %w", provider.ErrPermanent)

	// ErrCollectionAlreadyExists indicates that a collection with the same name already exists
	ErrCollectionAlreadyExists = errors.New("rekognition collection already exists")

	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = fmt.Errorf("invalid or missing AWS credentials: %w", provider.ErrPermanent)

	ErrNoFaceDetected = provider.ErrNoFaceDetected
	ErrFaceNotFound   = provider.ErrFaceNotFound
)
