package provider

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

var (
	// ErrNoFaceDetected is returned when the image contains no usable face
	ErrNoFaceDetected = errors.New("no face detected in image")

	// ErrFaceNotFound is returned when a face id is unknown to the collection
	ErrFaceNotFound = errors.New("face not found in collection")

	// ErrPermanent is wrapped by failures that repeating the call cannot fix:
	// bad credentials, a missing collection, an unreadable or invalid image
	ErrPermanent = errors.New("permanent recognition failure")
)

// Recognizer define a interface para o serviço de reconhecimento facial
type Recognizer interface {
	// IndexFace registers the first face found in the stored image and
	// returns the id assigned by the service.
	IndexFace(ctx context.Context, image domain.ImageRef) (faceID string, err error)

	// SearchFacesByImage returns candidate matches for the probe image in the
	// order the service ranks them.
	SearchFacesByImage(ctx context.Context, image []byte) ([]domain.MatchResult, error)

	// DetectAttributes returns gender, age range and emotions of the first
	// face in the stored image.
	DetectAttributes(ctx context.Context, image domain.ImageRef) (*domain.AttributeResult, error)

	// DeleteFace removes a face from the collection
	DeleteFace(ctx context.Context, faceID string) error
}
