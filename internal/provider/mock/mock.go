package mock

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// minImageSize below which the mock reports no face
const minImageSize = 1000

var emotionNames = []string{"HAPPY", "CALM", "SURPRISED", "CONFUSED", "SAD", "ANGRY", "DISGUSTED", "FEAR"}

// ImageSource fetches stored images by key.
type ImageSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Provider implementa provider.Recognizer para testes e desenvolvimento.
// Face ids derive from the sha256 of the image, so the same bytes always
// index and search to the same id.
type Provider struct {
	images ImageSource

	mu    sync.RWMutex
	faces map[string]struct{}
}

func New(images ImageSource) *Provider {
	return &Provider{
		images: images,
		faces:  make(map[string]struct{}),
	}
}

// IndexFace registra o hash da imagem armazenada como face
func (p *Provider) IndexFace(ctx context.Context, image domain.ImageRef) (string, error) {
	data, err := p.images.Get(ctx, image.Key)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", image.Key, err)
	}
	if len(data) < minImageSize {
		return "", provider.ErrNoFaceDetected
	}

	faceID := faceIDFor(data)

	p.mu.Lock()
	p.faces[faceID] = struct{}{}
	p.mu.Unlock()

	return faceID, nil
}

// SearchFacesByImage returns a single exact match when the same bytes were
// indexed before.
func (p *Provider) SearchFacesByImage(ctx context.Context, image []byte) ([]domain.MatchResult, error) {
	if len(image) < minImageSize {
		return nil, provider.ErrNoFaceDetected
	}

	faceID := faceIDFor(image)

	p.mu.RLock()
	_, ok := p.faces[faceID]
	p.mu.RUnlock()

	if !ok {
		return []domain.MatchResult{}, nil
	}
	return []domain.MatchResult{{FaceID: faceID, Confidence: 100}}, nil
}

// DetectAttributes gera atributos determinísticos a partir do hash
func (p *Provider) DetectAttributes(ctx context.Context, image domain.ImageRef) (*domain.AttributeResult, error) {
	data, err := p.images.Get(ctx, image.Key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", image.Key, err)
	}
	if len(data) < minImageSize {
		return nil, provider.ErrNoFaceDetected
	}

	hash := sha256.Sum256(data)

	gender := "Female"
	if hash[0]%2 == 1 {
		gender = "Male"
	}
	low := int32(18 + hash[1]%40)

	emotions := make([]domain.Emotion, len(emotionNames))
	for i, name := range emotionNames {
		//nolint:gosec // i+2 is always < len(hash)
		emotions[i] = domain.Emotion{Type: name, Confidence: float64(hash[i+2]) / 255.0 * 100}
	}
	sort.SliceStable(emotions, func(i, j int) bool {
		return emotions[i].Confidence > emotions[j].Confidence
	})

	return &domain.AttributeResult{
		Gender:   domain.Gender{Value: gender, Confidence: 99},
		AgeRange: domain.AgeRange{Low: low, High: low + 8},
		Emotions: emotions,
	}, nil
}

// DeleteFace remove a face do índice em memória
func (p *Provider) DeleteFace(ctx context.Context, faceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.faces[faceID]; !ok {
		return provider.ErrFaceNotFound
	}
	delete(p.faces, faceID)
	return nil
}

func faceIDFor(image []byte) string {
	hash := sha256.Sum256(image)
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

var _ provider.Recognizer = (*Provider)(nil)
