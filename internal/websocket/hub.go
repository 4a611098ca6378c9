package notifyws

import (
	"context"
	"encoding/json"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"go.uber.org/zap"
)

var (
	ErrHubBusy    = errors.New("notification hub is busy")
	ErrHubStopped = errors.New("notification hub stopped")
)

// Hub fans notifications out to every open connection of the recipient.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.Notification
	done       chan struct{}
	logger     *zap.Logger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Envelope is the frame written to the socket.
type Envelope struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification,omitempty"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.Notification, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

// Run serves registrations and deliveries until ctx is done, then closes
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.closeAll()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case notification := <-h.broadcast:
			h.deliver(notification)
		}
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a notification for live delivery. Recipients without an
// open connection simply miss the push.
func (h *Hub) Publish(ctx context.Context, notification models.Notification) error {
	select {
	case h.broadcast <- notification:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	default:
		return ErrHubBusy
	}
}

func (h *Hub) deliver(notification models.Notification) {
	set, ok := h.clients[notification.RecipientID]
	if !ok {
		return
	}

	encoded, err := json.Marshal(Envelope{Type: "notification", Notification: &notification})
	if err != nil {
		h.logger.Error("encode notification", zap.String("notification_id", notification.ID), zap.Error(err))
		return
	}

	for client := range set {
		select {
		case client.send <- encoded:
		default:
			h.logger.Warn("dropping slow websocket client", zap.String("user_id", client.userID))
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, notification.RecipientID)
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) closeAll() {
	for userID, set := range h.clients {
		for client := range set {
			close(client.send)
		}
		delete(h.clients, userID)
	}
}

// ReadPump only watches for the peer going away. The stream is push-only,
// so inbound frames are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
