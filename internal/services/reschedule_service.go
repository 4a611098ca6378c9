package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
	"go.uber.org/zap"
)

// responseWindowLead is how long before the original session time the client
// must have answered a reschedule request.
const responseWindowLead = 3 * time.Hour

type RescheduleService struct {
	sessions SessionStore
	requests RescheduleStore
	tx       Transactor
	rt       Runtime
}

func NewRescheduleService(sessions SessionStore, requests RescheduleStore, tx Transactor, rt Runtime) *RescheduleService {
	return &RescheduleService{
		sessions: sessions,
		requests: requests,
		tx:       tx,
		rt:       rt.withDefaults(),
	}
}

type RescheduleInput struct {
	ProposedAt time.Time
	Reason     *string
}

type RescheduleAcceptance struct {
	Request models.RescheduleRequest `json:"request"`
	Session models.Session           `json:"session"`
}

// ResponseDeadline is the last instant a client may answer a request for a
// session originally scheduled at scheduledAt.
func ResponseDeadline(scheduledAt time.Time) time.Time {
	return scheduledAt.Add(-responseWindowLead)
}

// RequestReschedule opens a negotiation on a scheduled session. Requests
// whose response window has already elapsed are rejected outright.
func (s *RescheduleService) RequestReschedule(
	ctx context.Context,
	supporterID string,
	sessionID string,
	input RescheduleInput,
) (*models.RescheduleRequest, error) {
	now := s.rt.Clock.Now()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, storeFailure("get session", err)
	}
	if session.SupporterID != supporterID {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrSessionNotScheduled
	}
	if !input.ProposedAt.After(now) {
		return nil, fmt.Errorf("%w: proposed time must be in the future", ErrInvalidInput)
	}
	if input.ProposedAt.Equal(session.ScheduledAt) {
		return nil, fmt.Errorf("%w: proposed time matches the current schedule", ErrInvalidInput)
	}

	if _, err := s.requests.GetPendingBySessionID(ctx, sessionID); err == nil {
		return nil, ErrDuplicatePending
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeFailure("get pending reschedule", err)
	}

	deadline := ResponseDeadline(session.ScheduledAt)
	if !deadline.After(now) {
		return nil, ErrNegotiationWindowGone
	}

	var reason *string
	if input.Reason != nil {
		if trimmed := strings.TrimSpace(*input.Reason); trimmed != "" {
			reason = &trimmed
		}
	}

	request, err := s.requests.Create(ctx, models.RescheduleRequest{
		ID:                  uuid.NewString(),
		SessionID:           session.ID,
		SupporterID:         session.SupporterID,
		ClientID:            session.ClientID,
		OriginalScheduledAt: session.ScheduledAt,
		ProposedScheduledAt: input.ProposedAt.UTC(),
		Status:              models.ReschedulePending,
		Reason:              reason,
		ResponseDeadline:    deadline,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicatePending
		}
		return nil, storeFailure("create reschedule request", err)
	}

	s.rt.Metrics.RecordRescheduleOutcome(models.ReschedulePending)
	s.rt.notify(ctx, request.ClientID, models.NotifyRescheduleRequested, reschedulePayload(request))
	return request, nil
}

// AcceptReschedule moves the session to the proposed time.
func (s *RescheduleService) AcceptReschedule(
	ctx context.Context,
	clientID string,
	requestID string,
) (*RescheduleAcceptance, error) {
	request, err := s.loadForResponse(ctx, clientID, requestID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, storeFailure("get session", err)
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrInvalidStateTransition
	}

	// The request and the session move together: if the session left
	// scheduled in the meantime the request stays pending.
	var resolved *models.RescheduleRequest
	var updated *models.Session
	err = s.tx.InTx(ctx, func(sessions SessionStore, requests RescheduleStore) error {
		var err error
		resolved, err = resolveWith(ctx, requests, request, models.RescheduleAccepted, s.rt.Clock.Now())
		if err != nil {
			return err
		}
		updated, err = sessions.UpdateScheduleIfStatus(ctx, resolved.SessionID, models.SessionScheduled, resolved.ProposedScheduledAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidStateTransition
			}
			return storeFailure("update session schedule", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStateTransition) {
			s.rt.Logger.Warn("reschedule acceptance rolled back, session no longer scheduled",
				zap.String("request_id", request.ID),
				zap.String("session_id", request.SessionID),
			)
		}
		if !errors.Is(err, ErrPreconditionFailed) && !errors.Is(err, ErrCollaboratorUnavailable) {
			err = storeFailure("accept reschedule", err)
		}
		return nil, err
	}
	s.rt.Metrics.RecordRescheduleOutcome(models.RescheduleAccepted)

	payload := reschedulePayload(resolved)
	s.rt.notify(ctx, resolved.ClientID, models.NotifyRescheduleAccepted, payload)
	s.rt.notify(ctx, resolved.SupporterID, models.NotifyRescheduleAccepted, payload)

	return &RescheduleAcceptance{Request: *resolved, Session: *updated}, nil
}

// DeclineReschedule keeps the original session time.
func (s *RescheduleService) DeclineReschedule(
	ctx context.Context,
	clientID string,
	requestID string,
) (*models.RescheduleRequest, error) {
	request, err := s.loadForResponse(ctx, clientID, requestID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolve(ctx, request, models.RescheduleDeclined)
	if err != nil {
		return nil, err
	}

	s.rt.notify(ctx, resolved.SupporterID, models.NotifyRescheduleDeclined, reschedulePayload(resolved))
	return resolved, nil
}

func (s *RescheduleService) PendingReschedule(
	ctx context.Context,
	actorID string,
	role string,
	sessionID string,
) (*models.RescheduleRequest, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, storeFailure("get session", err)
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	request, err := s.requests.GetPendingBySessionID(ctx, sessionID)
	if err != nil {
		return nil, storeFailure("get pending reschedule", err)
	}
	return request, nil
}

func (s *RescheduleService) loadForResponse(
	ctx context.Context,
	clientID string,
	requestID string,
) (*models.RescheduleRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeFailure("get reschedule request", err)
	}
	if request.ClientID != clientID {
		return nil, ErrForbidden
	}
	if request.Status != models.ReschedulePending {
		return nil, ErrAlreadyResolved
	}
	if s.rt.Clock.Now().After(request.ResponseDeadline) {
		return nil, ErrResponseWindowClosed
	}
	return request, nil
}

func (s *RescheduleService) resolve(
	ctx context.Context,
	request *models.RescheduleRequest,
	next models.RescheduleStatus,
) (*models.RescheduleRequest, error) {
	resolved, err := resolveWith(ctx, s.requests, request, next, s.rt.Clock.Now())
	if err != nil {
		return nil, err
	}
	s.rt.Metrics.RecordRescheduleOutcome(next)
	return resolved, nil
}

func resolveWith(
	ctx context.Context,
	requests RescheduleStore,
	request *models.RescheduleRequest,
	next models.RescheduleStatus,
	respondedAt time.Time,
) (*models.RescheduleRequest, error) {
	resolved, err := requests.UpdateStatusIfCurrent(ctx, request.ID, models.ReschedulePending, next, respondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyResolved
		}
		return nil, storeFailure("resolve reschedule request", err)
	}
	return resolved, nil
}

func reschedulePayload(request *models.RescheduleRequest) map[string]any {
	payload := map[string]any{
		"request_id":            request.ID,
		"session_id":            request.SessionID,
		"status":                request.Status,
		"original_scheduled_at": request.OriginalScheduledAt,
		"proposed_scheduled_at": request.ProposedScheduledAt,
		"response_deadline":     request.ResponseDeadline,
	}
	if request.Reason != nil {
		payload["reason"] = *request.Reason
	}
	return payload
}
