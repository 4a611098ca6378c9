// Package notify persists alerts and pushes them to connected clients.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/resilience"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type Publisher interface {
	Publish(ctx context.Context, notification models.Notification) error
}

type Options struct {
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Now     func() time.Time
	Logger  *zap.Logger
}

type Dispatcher struct {
	store     Store
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker
	opts      Options
}

func NewDispatcher(store Store, publisher Publisher, opts Options) *Dispatcher {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		breaker: resilience.NewCircuitBreaker("notification-store", func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}),
		opts: opts,
	}
}

// Notify stores the alert and then pushes it live. Only a failed write is an
// error; a recipient who is offline reads the stored copy later.
func (d *Dispatcher) Notify(
	ctx context.Context,
	recipientID string,
	kind models.NotificationKind,
	payload map[string]any,
) error {
	if payload == nil {
		payload = map[string]any{}
	}
	notification := models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
		CreatedAt:   d.opts.Now(),
	}

	err := resilience.Guard(ctx, d.breaker, d.opts.Timeout, func(ctx context.Context) error {
		return resilience.RetryWithBackoff(ctx, d.opts.Retry, func(ctx context.Context) error {
			return d.store.Create(ctx, &notification)
		})
	})
	if err != nil {
		return fmt.Errorf("persist %s notification: %w", kind, err)
	}

	if d.publisher == nil {
		return nil
	}
	if err := d.publisher.Publish(ctx, notification); err != nil {
		d.opts.Logger.Debug("live push skipped",
			zap.String("notification_id", notification.ID),
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
	}
	return nil
}
