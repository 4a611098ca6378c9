package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/services"
)

type assignmentApplicationService interface {
	AssignFromPreferences(ctx context.Context, clientID string, prefs models.ClientPreferences) (*models.AssignmentDetail, error)
	CurrentAssignment(ctx context.Context, clientID string) (*models.ClientAssignment, error)
	PauseAssignment(ctx context.Context, clientID string) (*models.ClientAssignment, error)
	ResumeAssignment(ctx context.Context, clientID string) (*models.ClientAssignment, error)
	EndAssignment(ctx context.Context, clientID, reason string) (*models.ClientAssignment, error)
}

type AssignmentHandler struct {
	service assignmentApplicationService
}

func NewAssignmentHandler(service *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

type endAssignmentRequest struct {
	Reason string `json:"reason"`
}

func (h *AssignmentHandler) Create(c *fiber.Ctx) error {
	clientID, ok := h.client(c)
	if !ok {
		return forbidden(c)
	}

	var prefs models.ClientPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return badRequest(c, "Invalid request body")
	}

	detail, err := h.service.AssignFromPreferences(c.Context(), clientID, prefs)
	if err != nil {
		return mapServiceError(c, err, "Supporter not found")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"assignment": detail.Assignment, "match": detail.Match})
}

func (h *AssignmentHandler) Active(c *fiber.Ctx) error {
	clientID, ok := h.client(c)
	if !ok {
		return forbidden(c)
	}

	assignment, err := h.service.CurrentAssignment(c.Context(), clientID)
	if err != nil {
		return mapServiceError(c, err, "No active assignment")
	}
	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) Pause(c *fiber.Ctx) error {
	clientID, ok := h.client(c)
	if !ok {
		return forbidden(c)
	}

	assignment, err := h.service.PauseAssignment(c.Context(), clientID)
	if err != nil {
		return mapServiceError(c, err, "No active assignment")
	}
	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) Resume(c *fiber.Ctx) error {
	clientID, ok := h.client(c)
	if !ok {
		return forbidden(c)
	}

	assignment, err := h.service.ResumeAssignment(c.Context(), clientID)
	if err != nil {
		return mapServiceError(c, err, "No active assignment")
	}
	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) End(c *fiber.Ctx) error {
	clientID, ok := h.client(c)
	if !ok {
		return forbidden(c)
	}

	var req endAssignmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	assignment, err := h.service.EndAssignment(c.Context(), clientID, req.Reason)
	if err != nil {
		return mapServiceError(c, err, "No active assignment")
	}
	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) client(c *fiber.Ctx) (string, bool) {
	actorID, role, err := parseActor(c)
	if err != nil || role != services.RoleClient {
		return "", false
	}
	return actorID, true
}
