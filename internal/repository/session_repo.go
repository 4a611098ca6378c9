package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
)

type CreateSessionInput struct {
	ClientID        string
	SupporterID     string
	SessionType     models.SessionType
	ScheduledAt     time.Time
	DurationMinutes int
	PriceCents      int64
}

type SessionListFilter struct {
	ActorID   string
	Role      string
	Status    string
	Timeframe string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, client_id, supporter_id, session_type, scheduled_at, duration_minutes,
	price_cents, status, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.ClientID,
		&session.SupporterID,
		&session.SessionType,
		&session.ScheduledAt,
		&session.DurationMinutes,
		&session.PriceCents,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO sessions (client_id, supporter_id, session_type, scheduled_at, duration_minutes, price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled')
		RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRow(
		ctx,
		query,
		input.ClientID,
		input.SupporterID,
		input.SessionType,
		input.ScheduledAt,
		input.DurationMinutes,
		input.PriceCents,
	))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	actorColumn := "client_id"
	if filter.Role == "supporter" {
		actorColumn = "supporter_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "(scheduled_at + (duration_minutes * INTERVAL '1 minute')) > NOW()")
	case "past":
		whereParts = append(whereParts, "(scheduled_at + (duration_minutes * INTERVAL '1 minute')) <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY scheduled_at ASC, created_at ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateStatusIfCurrent moves a session to nextStatus only while it is still
// in currentStatus. A lost race surfaces as pgx.ErrNoRows.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID string,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// UpdateScheduleIfStatus rewrites scheduled_at while the session is still in
// the given status.
func (r *SessionRepository) UpdateScheduleIfStatus(
	ctx context.Context,
	sessionID string,
	status models.SessionStatus,
	scheduledAt time.Time,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET scheduled_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, status, scheduledAt))
}
