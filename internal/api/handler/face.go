package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// FaceService interface for the service
type FaceService interface {
	Register(ctx context.Context, req domain.UploadRequest) domain.Result
	Authenticate(ctx context.Context, req domain.UploadRequest) domain.Result
	Attributes(ctx context.Context, entryID string) domain.Result
	List(ctx context.Context) domain.Result
}

// FaceHandler maps HTTP requests onto the face workflows. Workflow results
// are written as-is: status code plus JSON body.
type FaceHandler struct {
	service FaceService
	logger  *slog.Logger
}

func NewFaceHandler(service FaceService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		logger:  logger,
	}
}

// Register handles PUT /register_faces
func (h *FaceHandler) Register(c *fiber.Ctx) error {
	req, ok := h.parseUpload(c)
	if !ok {
		return reply(c, domain.Failure("request body must be a JSON object with filename and data"))
	}
	return reply(c, h.service.Register(c.UserContext(), req))
}

// Authenticate handles PUT /authenticate_faces
func (h *FaceHandler) Authenticate(c *fiber.Ctx) error {
	req, ok := h.parseUpload(c)
	if !ok {
		return reply(c, domain.Failure("request body must be a JSON object with filename and data"))
	}
	return reply(c, h.service.Authenticate(c.UserContext(), req))
}

// Attributes handles GET /face_attributes. The entry id comes from the
// query string, falling back to a JSON body.
func (h *FaceHandler) Attributes(c *fiber.Ctx) error {
	entryID := c.Query("entryid")
	if entryID == "" && len(c.Body()) > 0 {
		var req domain.AttributesRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			h.logger.Debug("invalid attributes body", "error", err)
			return reply(c, domain.Failure("request body must be a JSON object with entryid"))
		}
		entryID = req.EntryID
	}
	return reply(c, h.service.Attributes(c.UserContext(), entryID))
}

// List handles GET /registered_faces
func (h *FaceHandler) List(c *fiber.Ctx) error {
	return reply(c, h.service.List(c.UserContext()))
}

// parseUpload accepts a JSON body regardless of the declared content type
func (h *FaceHandler) parseUpload(c *fiber.Ctx) (domain.UploadRequest, bool) {
	var req domain.UploadRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		h.logger.Debug("invalid upload body", "error", err, "path", c.Path())
		return req, false
	}
	return req, true
}

func reply(c *fiber.Ctx, res domain.Result) error {
	c.Locals(LocalResultStatus, string(res.Status))
	return c.Status(res.StatusCode).JSON(res.Body)
}

// LocalResultStatus is the fiber local holding the workflow status label
const LocalResultStatus = "result_status"
