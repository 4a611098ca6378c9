package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/services"
)

var errInvalidActor = errors.New("invalid actor")

// parseActor reads the identity AuthRequired stored in Locals.
func parseActor(c *fiber.Ctx) (string, string, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return "", "", errInvalidActor
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", "", errInvalidActor
	}
	role, _ := c.Locals("role").(string)
	if role != services.RoleClient && role != services.RoleSupporter {
		return "", "", errInvalidActor
	}
	return userID, role, nil
}

func parseIDParam(c *fiber.Ctx, name string) (string, bool) {
	id := strings.TrimSpace(c.Params(name))
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// mapServiceError turns service sentinels into HTTP responses. notFound is
// the message used when the store had no matching row.
func mapServiceError(c *fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, services.ErrPreconditionFailed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound})
	case errors.Is(err, services.ErrCollaboratorUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
