// Package client talks to the facegate HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const placeholderURL = "https://YOUR_GATEWAY_API.amazonaws.com"

var (
	ErrURLTooShort    = errors.New("base url is not nearly long enough")
	ErrURLPlaceholder = errors.New("base url still points at the placeholder gateway")
)

// StatusError is a non-200 reply. Message is the JSON string the server
// sent, or the raw body when it was not one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	timeout time.Duration
}

// ValidateBaseURL rejects short or placeholder URLs and strips one trailing
// slash.
func ValidateBaseURL(raw string) (string, error) {
	if len(raw) < 16 {
		return "", fmt.Errorf("%w: %q", ErrURLTooShort, raw)
	}
	if raw == placeholderURL {
		return "", ErrURLPlaceholder
	}
	return strings.TrimSuffix(raw, "/"), nil
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := ValidateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{baseURL: u, timeout: timeout}, nil
}

// ListFaces returns every registered face, oldest first
func (c *Client) ListFaces(ctx context.Context) ([]domain.FaceRecord, error) {
	body, err := c.do(ctx, fiber.Get(c.baseURL+"/registered_faces"))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode face rows: %w", err)
	}

	faces := make([]domain.FaceRecord, 0, len(rows))
	for _, row := range rows {
		face, err := faceFromRow(row)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	return faces, nil
}

// Register uploads image under filename and returns the server message
func (c *Client) Register(ctx context.Context, filename string, image []byte) (string, error) {
	body, err := c.do(ctx, fiber.Put(c.baseURL+"/register_faces").JSON(upload(filename, image)))
	if err != nil {
		return "", err
	}
	return message(body), nil
}

// Authenticate returns the matched face. A 403 comes back as *StatusError.
func (c *Client) Authenticate(ctx context.Context, filename string, image []byte) (*domain.FaceRecord, error) {
	body, err := c.do(ctx, fiber.Put(c.baseURL+"/authenticate_faces").JSON(upload(filename, image)))
	if err != nil {
		return nil, err
	}

	var row []string
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("decode face row: %w", err)
	}
	face, err := faceFromRow(row)
	if err != nil {
		return nil, err
	}
	return &face, nil
}

func (c *Client) Attributes(ctx context.Context, entryID string) (*domain.AttributesResponse, error) {
	agent := fiber.Get(c.baseURL + "/face_attributes").QueryString("entryid=" + url.QueryEscape(entryID))
	body, err := c.do(ctx, agent)
	if err != nil {
		return nil, err
	}

	var attrs domain.AttributesResponse
	if err := json.Unmarshal(body, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return &attrs, nil
}

// do sends the request and turns any status other than 200 into a
// *StatusError
func (c *Client) do(ctx context.Context, agent *fiber.Agent) ([]byte, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("call %s: %w", c.baseURL, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, &StatusError{StatusCode: code, Message: message(body)}
	}
	return body, nil
}

func upload(filename string, image []byte) domain.UploadRequest {
	return domain.UploadRequest{Filename: filename, Data: encodeImage(image)}
}

// message unwraps a JSON string body, falling back to the raw text
func message(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func faceFromRow(row []string) (domain.FaceRecord, error) {
	if len(row) != 5 {
		return domain.FaceRecord{}, fmt.Errorf("face row has %d columns, want 5", len(row))
	}
	return domain.FaceRecord{
		EntryID:       row[0],
		FirstName:     row[1],
		LastName:      row[2],
		RecognitionID: row[3],
		StorageKey:    row[4],
	}, nil
}
