package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
)

const (
	RoleClient    = "client"
	RoleSupporter = "supporter"
)

type SessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	UpdateStatusIfCurrent(ctx context.Context, sessionID string, currentStatus, nextStatus models.SessionStatus) (*models.Session, error)
	UpdateScheduleIfStatus(ctx context.Context, sessionID string, status models.SessionStatus, scheduledAt time.Time) (*models.Session, error)
}

type RescheduleStore interface {
	Create(ctx context.Context, request models.RescheduleRequest) (*models.RescheduleRequest, error)
	GetByID(ctx context.Context, requestID string) (*models.RescheduleRequest, error)
	GetPendingBySessionID(ctx context.Context, sessionID string) (*models.RescheduleRequest, error)
	UpdateStatusIfCurrent(ctx context.Context, requestID string, currentStatus, nextStatus models.RescheduleStatus, respondedAt time.Time) (*models.RescheduleRequest, error)
	ListExpiredPending(ctx context.Context, now time.Time, scopeClientID string) ([]models.RescheduleRequest, error)
}

type AssignmentStore interface {
	Create(ctx context.Context, clientID, supporterID string, startedAt time.Time) (*models.ClientAssignment, error)
	GetCurrentByClientID(ctx context.Context, clientID string) (*models.ClientAssignment, error)
	UpdateStatusIfCurrent(ctx context.Context, assignmentID string, currentStatus, nextStatus models.AssignmentStatus, endedAt *time.Time, endReason *string) (*models.ClientAssignment, error)
}

// Transactor runs fn against session and reschedule stores bound to one
// transaction. Either every write fn made is committed or none is.
type Transactor interface {
	InTx(ctx context.Context, fn func(sessions SessionStore, requests RescheduleStore) error) error
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgxTransactor struct {
	db TxBeginner
}

func NewPgxTransactor(db TxBeginner) *PgxTransactor {
	return &PgxTransactor{db: db}
}

func (t *PgxTransactor) InTx(ctx context.Context, fn func(sessions SessionStore, requests RescheduleStore) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(repository.NewSessionRepository(tx), repository.NewRescheduleRepository(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var (
	_ Transactor         = (*PgxTransactor)(nil)
	_ SessionStore       = (*repository.SessionRepository)(nil)
	_ RescheduleStore    = (*repository.RescheduleRepository)(nil)
	_ AssignmentStore    = (*repository.AssignmentRepository)(nil)
	_ SupporterDirectory = (*repository.SupporterProfileRepository)(nil)
)
