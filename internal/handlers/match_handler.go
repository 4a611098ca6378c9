package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/services"
)

type matchApplicationService interface {
	Match(ctx context.Context, prefs models.ClientPreferences, limit int) ([]models.MatchResult, error)
}

type MatchHandler struct {
	service  matchApplicationService
	maxLimit int
}

func NewMatchHandler(service *services.MatchmakingService, maxLimit int) *MatchHandler {
	return &MatchHandler{service: service, maxLimit: maxLimit}
}

// Match ranks supporters for the posted preferences. An empty list is a
// normal answer, not an error.
func (h *MatchHandler) Match(c *fiber.Ctx) error {
	_, role, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}
	if role != services.RoleClient {
		return forbidden(c)
	}

	var prefs models.ClientPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return badRequest(c, "Invalid request body")
	}

	limit := parsePositiveInt(c.Query("limit"), h.maxLimit)
	if h.maxLimit > 0 && limit > h.maxLimit {
		limit = h.maxLimit
	}

	matches, err := h.service.Match(c.Context(), prefs, limit)
	if err != nil {
		return mapServiceError(c, err, "Supporter not found")
	}

	return c.JSON(fiber.Map{"matches": matches})
}
