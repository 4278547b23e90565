package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// MockFaceService is a mock implementation of FaceService
type MockFaceService struct {
	mock.Mock
}

func (m *MockFaceService) Register(ctx context.Context, req domain.UploadRequest) domain.Result {
	return m.Called(ctx, req).Get(0).(domain.Result)
}

func (m *MockFaceService) Authenticate(ctx context.Context, req domain.UploadRequest) domain.Result {
	return m.Called(ctx, req).Get(0).(domain.Result)
}

func (m *MockFaceService) Attributes(ctx context.Context, entryID string) domain.Result {
	return m.Called(ctx, entryID).Get(0).(domain.Result)
}

func (m *MockFaceService) List(ctx context.Context) domain.Result {
	return m.Called(ctx).Get(0).(domain.Result)
}

func setupFaceApp(svc FaceService) *fiber.App {
	app := fiber.New()
	h := NewFaceHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.Put("/register_faces", h.Register)
	app.Put("/authenticate_faces", h.Authenticate)
	app.Get("/face_attributes", h.Attributes)
	app.Get("/registered_faces", h.List)
	return app
}

func readBody(t *testing.T, body io.Reader) string {
	t.Helper()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	return string(raw)
}

func TestFaceHandler_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("Register", mock.Anything, domain.UploadRequest{Filename: "alice_smith.jpeg", Data: "aGk="}).
			Return(domain.OK(domain.MsgRegistered)).Once()

		req := httptest.NewRequest("PUT", "/register_faces", strings.NewReader(`{"filename":"alice_smith.jpeg","data":"aGk="}`))
		resp, err := setupFaceApp(svc).Test(req)
		require.NoError(t, err)

		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, `"Successful Registration!"`, readBody(t, resp.Body))
		svc.AssertExpectations(t)
	})

	t.Run("failure message is a JSON string", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("Register", mock.Anything, mock.Anything).
			Return(domain.Failure(domain.ErrUnsupportedExtension.Message)).Once()

		req := httptest.NewRequest("PUT", "/register_faces", strings.NewReader(`{"filename":"alice_smith.gif","data":"aGk="}`))
		resp, err := setupFaceApp(svc).Test(req)
		require.NoError(t, err)

		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, `"expecting filename to have .jpeg or .png extension"`, readBody(t, resp.Body))
	})

	t.Run("malformed body never reaches the service", func(t *testing.T) {
		svc := new(MockFaceService)

		req := httptest.NewRequest("PUT", "/register_faces", strings.NewReader(`not json`))
		resp, err := setupFaceApp(svc).Test(req)
		require.NoError(t, err)

		assert.Equal(t, 400, resp.StatusCode)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestFaceHandler_Authenticate(t *testing.T) {
	t.Run("match returns the face row", func(t *testing.T) {
		row := []string{"e-1", "alice", "smith", "f-1", "alice_smith.jpeg"}
		svc := new(MockFaceService)
		svc.On("Authenticate", mock.Anything, domain.UploadRequest{Filename: "probe.png", Data: "aGk="}).
			Return(domain.Match(row)).Once()

		req := httptest.NewRequest("PUT", "/authenticate_faces", strings.NewReader(`{"filename":"probe.png","data":"aGk="}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := setupFaceApp(svc).Test(req)
		require.NoError(t, err)

		assert.Equal(t, 200, resp.StatusCode)
		var got []string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, row, got)
	})

	t.Run("no match is 403", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("Authenticate", mock.Anything, mock.Anything).Return(domain.NoMatch()).Once()

		req := httptest.NewRequest("PUT", "/authenticate_faces", strings.NewReader(`{"filename":"probe.png","data":"aGk="}`))
		resp, err := setupFaceApp(svc).Test(req)
		require.NoError(t, err)

		assert.Equal(t, 403, resp.StatusCode)
		assert.Equal(t, `"No Face Match Found!"`, readBody(t, resp.Body))
	})
}

func TestFaceHandler_Attributes(t *testing.T) {
	attrs := domain.AttributesResponse{
		Gender:   domain.Gender{Value: "Female", Confidence: 99.5},
		AgeRange: domain.AgeRange{Low: 25, High: 33},
		Emotions: []domain.Emotion{{Type: "HAPPY", Confidence: 91}},
		Name:     "alice smith",
	}

	t.Run("entry id from query", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("Attributes", mock.Anything, "e-1").Return(domain.OK(attrs)).Once()

		resp, err := setupFaceApp(svc).Test(httptest.NewRequest("GET", "/face_attributes?entryid=e-1", nil))
		require.NoError(t, err)

		assert.Equal(t, 200, resp.StatusCode)
		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "alice smith", got["Name"])
		assert.Contains(t, got, "Gender")
		assert.Contains(t, got, "AgeRange")
		assert.Contains(t, got, "Emotions")
	})

	t.Run("entry id from body", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("Attributes", mock.Anything, "E1").Return(domain.NotFound()).Once()

		// fasthttp may drop GET bodies, so the body path is exercised over POST
		app := fiber.New()
		app.Post("/face_attributes", NewFaceHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Attributes)

		req := httptest.NewRequest("POST", "/face_attributes", strings.NewReader(`{"entryid":"E1"}`))
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, 403, resp.StatusCode)
		assert.Equal(t, `"Entry does not exist!"`, readBody(t, resp.Body))
		svc.AssertExpectations(t)
	})

	t.Run("missing entry id reaches the service empty", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("Attributes", mock.Anything, "").Return(domain.Failure("entryid is required")).Once()

		resp, err := setupFaceApp(svc).Test(httptest.NewRequest("GET", "/face_attributes", nil))
		require.NoError(t, err)

		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestFaceHandler_List(t *testing.T) {
	svc := new(MockFaceService)
	svc.On("List", mock.Anything).Return(domain.OK([][]string{
		{"e-1", "alice", "smith", "f-1", "alice_smith.jpeg"},
		{"e-2", "bob", "jones", "f-2", "bob_jones.png"},
	})).Once()

	resp, err := setupFaceApp(svc).Test(httptest.NewRequest("GET", "/registered_faces", nil))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	var rows [][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[1][1])
}
