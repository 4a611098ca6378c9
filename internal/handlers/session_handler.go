package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
	"github.com/saeid-a/PeerSupportBack/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	BookSession(ctx context.Context, clientID string, input services.BookSessionInput) (*models.Session, error)
	ListSessions(ctx context.Context, actorID, role string, filter repository.SessionListFilter) ([]models.Session, error)
	GetSession(ctx context.Context, actorID, role, sessionID string) (*models.Session, error)
	StartSession(ctx context.Context, actorID, role, sessionID string) (*models.Session, error)
	CompleteSession(ctx context.Context, actorID, role, sessionID string) (*models.Session, error)
	MarkNoShow(ctx context.Context, actorID, role, sessionID string) (*models.Session, error)
	CancelSession(ctx context.Context, actorID, role, sessionID string) (*models.SessionCancellation, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type bookSessionRequest struct {
	SupporterID     string `json:"supporter_id"`
	SessionType     string `json:"session_type"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	clientID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	if role != services.RoleClient {
		return forbidden(c)
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	scheduledAt, err := parseTimestamp(req.ScheduledAt)
	if err != nil {
		return badRequest(c, "scheduled_at must be a valid RFC3339 timestamp")
	}
	if req.DurationMinutes <= 0 {
		return badRequest(c, "duration_minutes must be greater than 0")
	}
	if req.PriceCents < 0 {
		return badRequest(c, "price_cents must not be negative")
	}
	sessionType := models.SessionType(strings.ToLower(strings.TrimSpace(req.SessionType)))
	if !sessionType.Valid() {
		return badRequest(c, "session_type must be chat, phone or video")
	}

	session, err := h.service.BookSession(c.Context(), clientID, services.BookSessionInput{
		SupporterID:     strings.TrimSpace(req.SupporterID),
		SessionType:     sessionType,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
	})
	if err != nil {
		return mapServiceError(c, err, "Session not found")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actorID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return badRequest(c, "timeframe must be upcoming or past")
	}

	sessions, err := h.service.ListSessions(c.Context(), actorID, role, repository.SessionListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapServiceError(c, err, "Session not found")
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return h.withSession(c, h.service.GetSession)
}

func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	return h.withSession(c, h.service.StartSession)
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	return h.withSession(c, h.service.CompleteSession)
}

func (h *SessionHandler) MarkNoShow(c *fiber.Ctx) error {
	return h.withSession(c, h.service.MarkNoShow)
}

// CancelSession answers with the refund priced at the moment of the call.
func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	actorID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	cancellation, err := h.service.CancelSession(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapServiceError(c, err, "Session not found")
	}

	return c.JSON(fiber.Map{"session": cancellation.Session, "refund": cancellation.Refund})
}

func (h *SessionHandler) withSession(
	c *fiber.Ctx,
	call func(ctx context.Context, actorID, role, sessionID string) (*models.Session, error),
) error {
	actorID, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	session, err := call(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapServiceError(c, err, "Session not found")
	}

	return c.JSON(fiber.Map{"session": session})
}
