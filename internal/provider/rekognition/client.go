package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeResourceNotFound = "ResourceNotFoundException"
	errCodeResourceExists   = "ResourceAlreadyExistsException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeInvalidS3Object  = "InvalidS3ObjectException"
)

// RekognitionAPI is the subset of the AWS client used here, so tests can
// substitute it.
type RekognitionAPI interface {
	IndexFaces(ctx context.Context, params *rekognition.IndexFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.IndexFacesOutput, error)
	SearchFacesByImage(ctx context.Context, params *rekognition.SearchFacesByImageInput, optFns ...func(*rekognition.Options)) (*rekognition.SearchFacesByImageOutput, error)
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	DeleteFaces(ctx context.Context, params *rekognition.DeleteFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DeleteFacesOutput, error)
	CreateCollection(ctx context.Context, params *rekognition.CreateCollectionInput, optFns ...func(*rekognition.Options)) (*rekognition.CreateCollectionOutput, error)
	DescribeCollection(ctx context.Context, params *rekognition.DescribeCollectionInput, optFns ...func(*rekognition.Options)) (*rekognition.DescribeCollectionOutput, error)
}

// Client wraps the AWS Rekognition client and manages the configured collection
type Client struct {
	rekognition RekognitionAPI
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration.
// Credentials come from the default chain, scoped to this client only.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}, nil
}

// CreateCollection creates the configured collection.
// Returns ErrCollectionAlreadyExists if it is already there.
func (c *Client) CreateCollection(ctx context.Context) error {
	_, err := c.rekognition.CreateCollection(ctx, &rekognition.CreateCollectionInput{
		CollectionId: aws.String(c.config.CollectionID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceExists:
				return fmt.Errorf("collection %s: %w", c.config.CollectionID, ErrCollectionAlreadyExists)
			case errCodeAccessDenied:
				return fmt.Errorf("collection %s: %w", c.config.CollectionID, ErrInvalidCredentials)
			}
		}
		return fmt.Errorf("failed to create collection %s: %w", c.config.CollectionID, err)
	}

	return nil
}

// CollectionExists checks whether the configured collection exists
func (c *Client) CollectionExists(ctx context.Context) (bool, error) {
	_, err := c.rekognition.DescribeCollection(ctx, &rekognition.DescribeCollectionInput{
		CollectionId: aws.String(c.config.CollectionID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceNotFound:
				return false, nil
			case errCodeAccessDenied:
				return false, fmt.Errorf("collection %s: %w", c.config.CollectionID, ErrInvalidCredentials)
			}
		}
		return false, fmt.Errorf("failed to check collection %s: %w", c.config.CollectionID, err)
	}

	return true, nil
}

// EnsureCollection creates the collection if it doesn't exist
func (c *Client) EnsureCollection(ctx context.Context) error {
	exists, err := c.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if exists {
		return nil
	}

	if err := c.CreateCollection(ctx); err != nil {
		// created concurrently
		if errors.Is(err, ErrCollectionAlreadyExists) {
			return nil
		}
		return err
	}

	return nil
}

// Ping describes the collection to check connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	exists, err := c.CollectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCollectionNotFound
	}
	return nil
}

// ParseNoFaceError maps an AWS error that means "no face in the image" onto
// ErrNoFaceDetected and returns any other error unchanged.
func ParseNoFaceError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeInvalidParameter {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return fmt.Errorf("%w: %s", ErrNoFaceDetected, msg)
		}
		return ErrNoFaceDetected
	}

	return err
}

// ParseIndexFacesError explains why IndexFaces returned no face records
func ParseIndexFacesError(unindexedFaces []types.UnindexedFace) error {
	if len(unindexedFaces) == 0 {
		return ErrNoFaceDetected
	}

	face := unindexedFaces[0]
	if len(face.Reasons) > 0 {
		return fmt.Errorf("%w: %s", ErrNoFaceDetected, face.Reasons[0])
	}

	return ErrNoFaceDetected
}

// mapAPIError translates collection, credential and input failures shared by
// every face operation. All of them wrap provider.ErrPermanent.
func mapAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeResourceNotFound:
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, apiErr.ErrorMessage())
		case errCodeAccessDenied:
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
		case errCodeInvalidParameter, errCodeInvalidS3Object:
			return fmt.Errorf("%w: %w", provider.ErrPermanent, err)
		}
	}
	return err
}
