package handlers

import (
	"context"
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/PeerSupportBack/internal/middleware"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	notifyws "github.com/saeid-a/PeerSupportBack/internal/websocket"
	"github.com/saeid-a/PeerSupportBack/pkg/utils"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type notificationLister interface {
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
}

type NotificationHandler struct {
	notifications notificationLister
	hub           *notifyws.Hub
	jwtSecret     string
}

func NewNotificationHandler(notifications notificationLister, hub *notifyws.Hub, jwtSecret string) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		hub:           hub,
		jwtSecret:     jwtSecret,
	}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actorID, _, err := parseActor(c)
	if err != nil {
		return unauthorized(c)
	}

	limit := parsePositiveInt(c.Query("limit"), defaultNotificationLimit)
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	notifications, err := h.notifications.ListByRecipient(c.Context(), actorID, limit)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// WebSocketAuth accepts the token as a query parameter because browsers
// cannot set headers on the upgrade request.
func (h *NotificationHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *NotificationHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := notifyws.NewClient(h.hub, conn, userID)

	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump()
}

func (h *NotificationHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		if bearer, ok := middleware.BearerToken(c.Get("Authorization")); ok {
			tokenString = bearer
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
