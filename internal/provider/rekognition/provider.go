package rekognition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const (
	// maxImageSize is the maximum inline image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024

	providerName = "rekognition"
)

// Provider implements provider.Recognizer using AWS Rekognition.
// Every operation runs against the single configured collection.
type Provider struct {
	client      *Client
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var _ provider.Recognizer = (*Provider)(nil)

// NewProvider creates the provider and makes sure the collection exists
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	p := newProvider(client, opts...)

	if err := client.EnsureCollection(ctx); err != nil {
		p.logAudit(ctx, audit.Event{EventType: audit.EventCollectionEnsured}, err)
		return nil, fmt.Errorf("ensure collection %s: %w", cfg.CollectionID, err)
	}
	p.logAudit(ctx, audit.Event{EventType: audit.EventCollectionEnsured}, nil)

	return p, nil
}

func newProvider(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ping checks that the collection is reachable
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// logAudit fills the common fields and hands the event to the audit logger.
// Audit failure does not affect the operation (fire-and-forget).
func (p *Provider) logAudit(ctx context.Context, event audit.Event, err error) {
	if p.auditLogger == nil {
		return
	}

	event.Collection = p.client.config.CollectionID
	event.Provider = providerName
	event.Success = err == nil
	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

func s3Image(ref domain.ImageRef) *types.Image {
	return &types.Image{
		S3Object: &types.S3Object{
			Bucket: aws.String(ref.Bucket),
			Name:   aws.String(ref.Key),
		},
	}
}

// IndexFace indexes the first face of the stored image in the collection.
func (p *Provider) IndexFace(ctx context.Context, image domain.ImageRef) (string, error) {
	event := audit.Event{EventType: audit.EventFaceIndexed, StorageKey: image.Key}

	input := &rekognition.IndexFacesInput{
		CollectionId:        aws.String(p.client.config.CollectionID),
		Image:               s3Image(image),
		MaxFaces:            aws.Int32(1),
		QualityFilter:       types.QualityFilterAuto,
		DetectionAttributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := p.client.rekognition.IndexFaces(ctx, input)
	if err != nil {
		err = p.wrapS3ObjectError(image, mapAPIError(err))
		p.logAudit(ctx, event, err)
		return "", fmt.Errorf("index face: %w", err)
	}

	if len(output.FaceRecords) == 0 || output.FaceRecords[0].Face == nil {
		indexErr := ParseIndexFacesError(output.UnindexedFaces)
		event.Metadata = map[string]string{"unindexed_faces": strconv.Itoa(len(output.UnindexedFaces))}
		p.logAudit(ctx, event, indexErr)
		return "", indexErr
	}

	faceID := aws.ToString(output.FaceRecords[0].Face.FaceId)
	event.FaceID = faceID
	p.logAudit(ctx, event, nil)

	return faceID, nil
}

// SearchFacesByImage searches the collection for faces similar to the
// largest face in the probe. Matches keep the order returned by the service.
func (p *Provider) SearchFacesByImage(ctx context.Context, image []byte) ([]domain.MatchResult, error) {
	event := audit.Event{
		EventType: audit.EventFaceSearched,
		Metadata:  map[string]string{"image_size": strconv.Itoa(len(image))},
	}

	var sizeErr error
	switch {
	case len(image) == 0:
		sizeErr = domain.ErrBadRequest.WithMessage("image is empty")
	case len(image) > maxImageSize:
		sizeErr = domain.ErrBadRequest.WithMessage("image exceeds the %d MB limit", maxImageSize/(1024*1024))
	}
	if sizeErr != nil {
		p.logAudit(ctx, event, sizeErr)
		return nil, sizeErr
	}

	input := &rekognition.SearchFacesByImageInput{
		CollectionId: aws.String(p.client.config.CollectionID),
		Image:        &types.Image{Bytes: image},
	}

	output, err := p.client.rekognition.SearchFacesByImage(ctx, input)
	if err != nil {
		err = mapAPIError(ParseNoFaceError(err))
		p.logAudit(ctx, event, err)
		return nil, fmt.Errorf("search faces by image: %w", err)
	}

	matches := make([]domain.MatchResult, 0, len(output.FaceMatches))
	for _, match := range output.FaceMatches {
		if match.Face == nil || match.Face.FaceId == nil {
			continue
		}
		matches = append(matches, domain.MatchResult{
			FaceID:     aws.ToString(match.Face.FaceId),
			Confidence: float64(aws.ToFloat32(match.Similarity)),
		})
	}

	event.Metadata["matches_found"] = strconv.Itoa(len(matches))
	p.logAudit(ctx, event, nil)

	return matches, nil
}

// DetectAttributes runs DetectFaces with all attributes on the stored image
// and shapes the first face.
func (p *Provider) DetectAttributes(ctx context.Context, image domain.ImageRef) (*domain.AttributeResult, error) {
	event := audit.Event{EventType: audit.EventAttributesDetected, StorageKey: image.Key}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      s3Image(image),
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		err = p.wrapS3ObjectError(image, mapAPIError(err))
		p.logAudit(ctx, event, err)
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	if len(output.FaceDetails) == 0 {
		p.logAudit(ctx, event, ErrNoFaceDetected)
		return nil, ErrNoFaceDetected
	}

	event.Metadata = map[string]string{"faces_count": strconv.Itoa(len(output.FaceDetails))}
	p.logAudit(ctx, event, nil)

	return shapeAttributes(output.FaceDetails[0]), nil
}

func shapeAttributes(detail types.FaceDetail) *domain.AttributeResult {
	result := &domain.AttributeResult{
		Emotions: make([]domain.Emotion, 0, len(detail.Emotions)),
	}

	if detail.Gender != nil {
		result.Gender = domain.Gender{
			Value:      string(detail.Gender.Value),
			Confidence: float64(aws.ToFloat32(detail.Gender.Confidence)),
		}
	}
	if detail.AgeRange != nil {
		result.AgeRange = domain.AgeRange{
			Low:  aws.ToInt32(detail.AgeRange.Low),
			High: aws.ToInt32(detail.AgeRange.High),
		}
	}
	for _, e := range detail.Emotions {
		result.Emotions = append(result.Emotions, domain.Emotion{
			Type:       string(e.Type),
			Confidence: float64(aws.ToFloat32(e.Confidence)),
		})
	}

	sort.SliceStable(result.Emotions, func(i, j int) bool {
		return result.Emotions[i].Confidence > result.Emotions[j].Confidence
	})

	return result
}

// DeleteFace removes a face from the collection.
// Returns ErrFaceNotFound if the face id does not exist.
func (p *Provider) DeleteFace(ctx context.Context, faceID string) error {
	event := audit.Event{EventType: audit.EventFaceDeleted, FaceID: faceID}

	output, err := p.client.rekognition.DeleteFaces(ctx, &rekognition.DeleteFacesInput{
		CollectionId: aws.String(p.client.config.CollectionID),
		FaceIds:      []string{faceID},
	})
	if err != nil {
		err = mapAPIError(err)
		p.logAudit(ctx, event, err)
		return fmt.Errorf("delete face: %w", err)
	}

	if len(output.DeletedFaces) == 0 {
		p.logAudit(ctx, event, ErrFaceNotFound)
		return fmt.Errorf("face %s: %w", faceID, ErrFaceNotFound)
	}

	p.logAudit(ctx, event, nil)
	return nil
}

func (p *Provider) wrapS3ObjectError(image domain.ImageRef, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeInvalidS3Object {
		return fmt.Errorf("stored image s3://%s/%s unreadable: %w", image.Bucket, image.Key, err)
	}
	return err
}
