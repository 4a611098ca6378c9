package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
	"go.uber.org/zap"
)

var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionScheduled:  {models.SessionInProgress, models.SessionCancelled, models.SessionNoShow},
	models.SessionInProgress: {models.SessionCompleted, models.SessionCancelled},
}

// CanTransition reports whether a session may move from one status to
// another. Terminal statuses have no outgoing transitions.
func CanTransition(from, to models.SessionStatus) bool {
	for _, allowed := range sessionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type SessionService struct {
	sessions    SessionStore
	assignments AssignmentStore
	rt          Runtime
}

func NewSessionService(sessions SessionStore, assignments AssignmentStore, rt Runtime) *SessionService {
	return &SessionService{
		sessions:    sessions,
		assignments: assignments,
		rt:          rt.withDefaults(),
	}
}

type BookSessionInput struct {
	SupporterID     string
	SessionType     models.SessionType
	ScheduledAt     time.Time
	DurationMinutes int
	PriceCents      int64
}

// BookSession creates a scheduled session with the client's active
// supporter.
func (s *SessionService) BookSession(
	ctx context.Context,
	clientID string,
	input BookSessionInput,
) (*models.Session, error) {
	now := s.rt.Clock.Now()
	if clientID == "" || input.SupporterID == "" || clientID == input.SupporterID {
		return nil, ErrInvalidInput
	}
	if !input.SessionType.Valid() || input.DurationMinutes <= 0 || input.PriceCents < 0 {
		return nil, ErrInvalidInput
	}
	if !input.ScheduledAt.After(now) {
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", ErrInvalidInput)
	}

	assignment, err := s.assignments.GetCurrentByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveAssignment
		}
		return nil, storeFailure("get assignment", err)
	}
	if assignment.Status != models.AssignmentActive || assignment.SupporterID != input.SupporterID {
		return nil, ErrNoActiveAssignment
	}

	session, err := s.sessions.Create(ctx, repository.CreateSessionInput{
		ClientID:        clientID,
		SupporterID:     input.SupporterID,
		SessionType:     input.SessionType,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		PriceCents:      input.PriceCents,
	})
	if err != nil {
		return nil, storeFailure("create session", err)
	}

	s.rt.notify(ctx, session.SupporterID, models.NotifySessionBooked, map[string]any{
		"session_id":   session.ID,
		"scheduled_at": session.ScheduledAt,
		"session_type": session.SessionType,
	})
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, actorID, role, sessionID string) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, storeFailure("get session", err)
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID string,
	role string,
	filter repository.SessionListFilter,
) ([]models.Session, error) {
	if role != RoleClient && role != RoleSupporter {
		return nil, ErrForbidden
	}
	sessions, err := s.sessions.List(ctx, repository.SessionListFilter{
		ActorID:   actorID,
		Role:      role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
	if err != nil {
		return nil, storeFailure("list sessions", err)
	}
	return sessions, nil
}

// StartSession marks a scheduled session as in progress. Whether it is time
// to start is the caller's decision.
func (s *SessionService) StartSession(ctx context.Context, actorID, role, sessionID string) (*models.Session, error) {
	return s.transition(ctx, actorID, role, sessionID, models.SessionInProgress, RoleClient, RoleSupporter)
}

func (s *SessionService) CompleteSession(ctx context.Context, actorID, role, sessionID string) (*models.Session, error) {
	return s.transition(ctx, actorID, role, sessionID, models.SessionCompleted, RoleSupporter)
}

func (s *SessionService) MarkNoShow(ctx context.Context, actorID, role, sessionID string) (*models.Session, error) {
	return s.transition(ctx, actorID, role, sessionID, models.SessionNoShow, RoleSupporter)
}

// CancelSession cancels on behalf of either party and prices the refund at
// the moment of cancellation.
func (s *SessionService) CancelSession(
	ctx context.Context,
	actorID string,
	role string,
	sessionID string,
) (*models.SessionCancellation, error) {
	cancelled, err := s.transition(ctx, actorID, role, sessionID, models.SessionCancelled, RoleClient, RoleSupporter)
	if err != nil {
		return nil, err
	}

	initiator := models.InitiatorClient
	recipient := cancelled.SupporterID
	if role == RoleSupporter {
		initiator = models.InitiatorSupporter
		recipient = cancelled.ClientID
	}
	refund := CalculateRefund(cancelled.PriceCents, cancelled.ScheduledAt, initiator, s.rt.Clock.Now())
	s.rt.Metrics.RecordRefund(initiator, refund.Percentage)

	s.rt.Logger.Info("session cancelled",
		zap.String("session_id", cancelled.ID),
		zap.String("initiator", string(initiator)),
		zap.Int("refund_percentage", refund.Percentage),
	)
	s.rt.notify(ctx, recipient, models.NotifySessionCancelled, map[string]any{
		"session_id":   cancelled.ID,
		"scheduled_at": cancelled.ScheduledAt,
		"cancelled_by": initiator,
	})

	return &models.SessionCancellation{Session: *cancelled, Refund: refund}, nil
}

func (s *SessionService) transition(
	ctx context.Context,
	actorID string,
	role string,
	sessionID string,
	next models.SessionStatus,
	allowedRoles ...string,
) (*models.Session, error) {
	if !roleAllowed(role, allowedRoles) {
		return nil, ErrForbidden
	}

	session, err := s.GetSession(ctx, actorID, role, sessionID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(session.Status, next) {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.sessions.UpdateStatusIfCurrent(ctx, sessionID, session.Status, next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, storeFailure("update session status", err)
	}
	return updated, nil
}

func roleAllowed(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

func canAccessSession(role, actorID string, session *models.Session) bool {
	switch role {
	case RoleClient:
		return session.ClientID == actorID
	case RoleSupporter:
		return session.SupporterID == actorID
	default:
		return false
	}
}
