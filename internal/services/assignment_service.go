package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
	"go.uber.org/zap"
)

type Matcher interface {
	Match(ctx context.Context, prefs models.ClientPreferences, limit int) ([]models.MatchResult, error)
}

type AssignmentService struct {
	matcher     Matcher
	assignments AssignmentStore
	rt          Runtime
}

func NewAssignmentService(matcher Matcher, assignments AssignmentStore, rt Runtime) *AssignmentService {
	return &AssignmentService{
		matcher:     matcher,
		assignments: assignments,
		rt:          rt.withDefaults(),
	}
}

// AssignFromPreferences pairs the client with the best-ranked supporter. A
// client that still has an active or paused assignment must end it first.
func (s *AssignmentService) AssignFromPreferences(
	ctx context.Context,
	clientID string,
	prefs models.ClientPreferences,
) (*models.AssignmentDetail, error) {
	if clientID == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.assignments.GetCurrentByClientID(ctx, clientID); err == nil {
		return nil, ErrActiveAssignmentExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeFailure("get assignment", err)
	}

	matches, err := s.matcher.Match(ctx, prefs, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoEligibleSupporter
	}
	best := matches[0]

	assignment, err := s.assignments.Create(ctx, clientID, best.SupporterID, s.rt.Clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrActiveAssignmentExists
		}
		return nil, storeFailure("create assignment", err)
	}

	s.rt.Logger.Info("client assigned",
		zap.String("client_id", clientID),
		zap.String("supporter_id", assignment.SupporterID),
		zap.Int("compatibility_score", best.CompatibilityScore),
	)
	s.rt.notify(ctx, assignment.SupporterID, models.NotifyAssignmentCreated, map[string]any{
		"assignment_id":       assignment.ID,
		"client_id":           assignment.ClientID,
		"compatibility_score": best.CompatibilityScore,
	})

	return &models.AssignmentDetail{Assignment: *assignment, Match: best}, nil
}

func (s *AssignmentService) CurrentAssignment(ctx context.Context, clientID string) (*models.ClientAssignment, error) {
	assignment, err := s.assignments.GetCurrentByClientID(ctx, clientID)
	if err != nil {
		return nil, storeFailure("get assignment", err)
	}
	return assignment, nil
}

func (s *AssignmentService) PauseAssignment(ctx context.Context, clientID string) (*models.ClientAssignment, error) {
	return s.move(ctx, clientID, models.AssignmentActive, models.AssignmentPaused)
}

func (s *AssignmentService) ResumeAssignment(ctx context.Context, clientID string) (*models.ClientAssignment, error) {
	return s.move(ctx, clientID, models.AssignmentPaused, models.AssignmentActive)
}

// EndAssignment closes the client's current pairing so a new match can be
// made.
func (s *AssignmentService) EndAssignment(ctx context.Context, clientID, reason string) (*models.ClientAssignment, error) {
	current, err := s.assignments.GetCurrentByClientID(ctx, clientID)
	if err != nil {
		return nil, storeFailure("get assignment", err)
	}

	endedAt := s.rt.Clock.Now()
	var endReason *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		endReason = &trimmed
	}

	ended, err := s.assignments.UpdateStatusIfCurrent(ctx, current.ID, current.Status, models.AssignmentEnded, &endedAt, endReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, storeFailure("end assignment", err)
	}

	s.rt.notify(ctx, ended.SupporterID, models.NotifyAssignmentEnded, map[string]any{
		"assignment_id": ended.ID,
		"client_id":     ended.ClientID,
	})
	return ended, nil
}

func (s *AssignmentService) move(
	ctx context.Context,
	clientID string,
	from models.AssignmentStatus,
	to models.AssignmentStatus,
) (*models.ClientAssignment, error) {
	current, err := s.assignments.GetCurrentByClientID(ctx, clientID)
	if err != nil {
		return nil, storeFailure("get assignment", err)
	}
	if current.Status != from {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.assignments.UpdateStatusIfCurrent(ctx, current.ID, from, to, nil, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, storeFailure("update assignment", err)
	}
	return updated, nil
}
