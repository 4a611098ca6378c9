package services

import (
	"context"
	"time"

	"github.com/saeid-a/PeerSupportBack/internal/models"
	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Notifier delivers human-readable alerts. Delivery is best-effort: callers
// never roll back a state change because a notification failed.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind models.NotificationKind, payload map[string]any) error
}

// Recorder receives domain counters; observability.Metrics implements it.
type Recorder interface {
	ObserveMatch(duration time.Duration, results int)
	RecordRescheduleOutcome(status models.RescheduleStatus)
	RecordRefund(initiator models.Initiator, percentage int)
	RecordSweep(processed int, failed bool)
	RecordNotificationFailure(kind models.NotificationKind)
}

// Runtime bundles the collaborators every service shares.
type Runtime struct {
	Clock    Clock
	Notifier Notifier
	Logger   *zap.Logger
	Metrics  Recorder
}

func (r Runtime) withDefaults() Runtime {
	if r.Clock == nil {
		r.Clock = SystemClock{}
	}
	if r.Notifier == nil {
		r.Notifier = discardNotifier{}
	}
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
	if r.Metrics == nil {
		r.Metrics = nopRecorder{}
	}
	return r
}

func (r Runtime) notify(
	ctx context.Context,
	recipientID string,
	kind models.NotificationKind,
	payload map[string]any,
) {
	if recipientID == "" {
		return
	}
	if err := r.Notifier.Notify(ctx, recipientID, kind, payload); err != nil {
		r.Metrics.RecordNotificationFailure(kind)
		r.Logger.Warn("notification delivery failed",
			zap.String("recipient_id", recipientID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, string, models.NotificationKind, map[string]any) error {
	return nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveMatch(time.Duration, int) {}
func (nopRecorder) RecordRescheduleOutcome(models.RescheduleStatus) {}
func (nopRecorder) RecordRefund(models.Initiator, int) {}
func (nopRecorder) RecordSweep(int, bool) {}
func (nopRecorder) RecordNotificationFailure(models.NotificationKind) {}
