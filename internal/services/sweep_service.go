package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"go.uber.org/zap"
)

type SweepService struct {
	sessions SessionStore
	requests RescheduleStore
	rt       Runtime
}

func NewSweepService(sessions SessionStore, requests RescheduleStore, rt Runtime) *SweepService {
	return &SweepService{
		sessions: sessions,
		requests: requests,
		rt:       rt.withDefaults(),
	}
}

// SweepExpired auto-cancels every pending reschedule request whose response
// deadline has passed, optionally only for one client. Requests resolved
// concurrently are skipped. Per-request failures do not stop the pass; they
// are returned joined alongside the partial result.
func (s *SweepService) SweepExpired(ctx context.Context, scopeClientID string) (models.SweepResult, error) {
	result := models.SweepResult{CancelledSessionIDs: []string{}}
	now := s.rt.Clock.Now()

	expired, err := s.requests.ListExpiredPending(ctx, now, scopeClientID)
	if err != nil {
		s.rt.Metrics.RecordSweep(0, true)
		return result, storeFailure("list expired reschedule requests", err)
	}

	var errs []error
	for i := range expired {
		request := expired[i]
		processed, sessionID, err := s.expire(ctx, &request, now)
		if err != nil {
			errs = append(errs, err)
		}
		if processed {
			result.ProcessedCount++
		}
		if sessionID != "" {
			result.CancelledSessionIDs = append(result.CancelledSessionIDs, sessionID)
		}
	}

	s.rt.Metrics.RecordSweep(result.ProcessedCount, len(errs) > 0)
	if result.ProcessedCount > 0 {
		s.rt.Logger.Info("expired reschedule requests auto-cancelled",
			zap.Int("processed", result.ProcessedCount),
			zap.Strings("cancelled_session_ids", result.CancelledSessionIDs),
			zap.String("scope_client_id", scopeClientID),
		)
	}
	return result, errors.Join(errs...)
}

func (s *SweepService) expire(
	ctx context.Context,
	request *models.RescheduleRequest,
	now time.Time,
) (bool, string, error) {
	resolved, err := s.requests.UpdateStatusIfCurrent(ctx, request.ID, models.ReschedulePending, models.RescheduleAutoCancelled, now)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", storeFailure(fmt.Sprintf("auto-cancel reschedule request %s", request.ID), err)
	}
	s.rt.Metrics.RecordRescheduleOutcome(models.RescheduleAutoCancelled)

	session, err := s.sessions.UpdateStatusIfCurrent(ctx, resolved.SessionID, models.SessionScheduled, models.SessionCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.rt.Logger.Warn("auto-cancelled request for a session that is no longer scheduled",
				zap.String("request_id", resolved.ID),
				zap.String("session_id", resolved.SessionID),
			)
			return true, "", nil
		}
		return true, "", storeFailure(fmt.Sprintf("cancel session %s", resolved.SessionID), err)
	}

	// The client let the window lapse, so the refund is priced as a client
	// cancellation.
	refund := CalculateRefund(session.PriceCents, session.ScheduledAt, models.InitiatorClient, now)
	s.rt.Metrics.RecordRefund(models.InitiatorClient, refund.Percentage)

	payload := reschedulePayload(resolved)
	payload["refund_percentage"] = refund.Percentage
	payload["refund_amount_cents"] = refund.AmountCents
	payload["refund_reason"] = refund.Reason
	s.rt.notify(ctx, resolved.ClientID, models.NotifyRescheduleAutoCancelled, payload)
	s.rt.notify(ctx, resolved.SupporterID, models.NotifyRescheduleAutoCancelled, payload)

	return true, session.ID, nil
}
