package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/services"
)

type rescheduleApplicationService interface {
	RequestReschedule(ctx context.Context, supporterID, sessionID string, input services.RescheduleInput) (*models.RescheduleRequest, error)
	AcceptReschedule(ctx context.Context, clientID, requestID string) (*services.RescheduleAcceptance, error)
	DeclineReschedule(ctx context.Context, clientID, requestID string) (*models.RescheduleRequest, error)
	PendingReschedule(ctx context.Context, actorID, role, sessionID string) (*models.RescheduleRequest, error)
}

type sweepApplicationService interface {
	SweepExpired(ctx context.Context, scopeClientID string) (models.SweepResult, error)
}

type RescheduleHandler struct {
	service rescheduleApplicationService
	sweeper sweepApplicationService
}

func NewRescheduleHandler(service *services.RescheduleService, sweeper *services.SweepService) *RescheduleHandler {
	return &RescheduleHandler{service: service, sweeper: sweeper}
}

type rescheduleRequestBody struct {
	ProposedScheduledAt string  `json:"proposed_scheduled_at"`
	Reason              *string `json:"reason"`
}

func (h *RescheduleHandler) RequestReschedule(c *fiber.Ctx) error {
	supporterID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	if role != services.RoleSupporter {
		return forbidden(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	var req rescheduleRequestBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	proposedAt, err := parseTimestamp(req.ProposedScheduledAt)
	if err != nil {
		return badRequest(c, "proposed_scheduled_at must be a valid RFC3339 timestamp")
	}

	request, err := h.service.RequestReschedule(c.Context(), supporterID, sessionID, services.RescheduleInput{
		ProposedAt: proposedAt,
		Reason:     req.Reason,
	})
	if err != nil {
		return mapServiceError(c, err, "Session not found")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reschedule_request": request})
}

func (h *RescheduleHandler) PendingReschedule(c *fiber.Ctx) error {
	actorID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	request, err := h.service.PendingReschedule(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapServiceError(c, err, "No pending reschedule request")
	}
	return c.JSON(fiber.Map{"reschedule_request": request})
}

func (h *RescheduleHandler) Accept(c *fiber.Ctx) error {
	clientID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	if role != services.RoleClient {
		return forbidden(c)
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid reschedule request id")
	}

	accepted, err := h.service.AcceptReschedule(c.Context(), clientID, requestID)
	if err != nil {
		return mapServiceError(c, err, "Reschedule request not found")
	}
	return c.JSON(fiber.Map{"reschedule_request": accepted.Request, "session": accepted.Session})
}

func (h *RescheduleHandler) Decline(c *fiber.Ctx) error {
	clientID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	if role != services.RoleClient {
		return forbidden(c)
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid reschedule request id")
	}

	declined, err := h.service.DeclineReschedule(c.Context(), clientID, requestID)
	if err != nil {
		return mapServiceError(c, err, "Reschedule request not found")
	}
	return c.JSON(fiber.Map{"reschedule_request": declined})
}

// Sweep lets a client settle their own expired requests without waiting for
// the background poller.
func (h *RescheduleHandler) Sweep(c *fiber.Ctx) error {
	clientID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	if role != services.RoleClient {
		return forbidden(c)
	}

	// A failed item does not undo the ones already settled, so the partial
	// result travels with the error.
	result, err := h.sweeper.SweepExpired(c.Context(), clientID)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, services.ErrCollaboratorUnavailable) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error":                 "Some expired reschedule requests could not be settled",
			"processed_count":       result.ProcessedCount,
			"cancelled_session_ids": result.CancelledSessionIDs,
		})
	}
	return c.JSON(result)
}
