package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
)

type RescheduleRepository struct {
	db DBTX
}

func NewRescheduleRepository(db DBTX) *RescheduleRepository {
	return &RescheduleRepository{db: db}
}

const rescheduleColumns = `id, session_id, supporter_id, client_id, original_scheduled_at,
	proposed_scheduled_at, status, reason, response_deadline, responded_at, created_at`

func scanReschedule(row pgx.Row) (*models.RescheduleRequest, error) {
	var request models.RescheduleRequest
	err := row.Scan(
		&request.ID,
		&request.SessionID,
		&request.SupporterID,
		&request.ClientID,
		&request.OriginalScheduledAt,
		&request.ProposedScheduledAt,
		&request.Status,
		&request.Reason,
		&request.ResponseDeadline,
		&request.RespondedAt,
		&request.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RescheduleRepository) Create(ctx context.Context, request models.RescheduleRequest) (*models.RescheduleRequest, error) {
	query := `
		INSERT INTO reschedule_requests (
			id, session_id, supporter_id, client_id, original_scheduled_at,
			proposed_scheduled_at, status, reason, response_deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8)
		RETURNING ` + rescheduleColumns

	created, err := scanReschedule(r.db.QueryRow(
		ctx,
		query,
		request.ID,
		request.SessionID,
		request.SupporterID,
		request.ClientID,
		request.OriginalScheduledAt,
		request.ProposedScheduledAt,
		request.Reason,
		request.ResponseDeadline,
	))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *RescheduleRepository) GetByID(ctx context.Context, requestID string) (*models.RescheduleRequest, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedule_requests WHERE id = $1`
	return scanReschedule(r.db.QueryRow(ctx, query, requestID))
}

func (r *RescheduleRepository) GetPendingBySessionID(ctx context.Context, sessionID string) (*models.RescheduleRequest, error) {
	query := `
		SELECT ` + rescheduleColumns + `
		FROM reschedule_requests
		WHERE session_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanReschedule(r.db.QueryRow(ctx, query, sessionID))
}

// UpdateStatusIfCurrent resolves a request exactly once: the row only changes
// while it still holds currentStatus.
func (r *RescheduleRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	requestID string,
	currentStatus models.RescheduleStatus,
	nextStatus models.RescheduleStatus,
	respondedAt time.Time,
) (*models.RescheduleRequest, error) {
	query := `
		UPDATE reschedule_requests
		SET status = $3, responded_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + rescheduleColumns
	return scanReschedule(r.db.QueryRow(ctx, query, requestID, currentStatus, nextStatus, respondedAt))
}

// ListExpiredPending returns pending requests whose deadline is before now,
// optionally limited to one client.
func (r *RescheduleRepository) ListExpiredPending(
	ctx context.Context,
	now time.Time,
	scopeClientID string,
) ([]models.RescheduleRequest, error) {
	query := `
		SELECT ` + rescheduleColumns + `
		FROM reschedule_requests
		WHERE status = 'pending'
		  AND response_deadline < $1
		  AND ($2 = '' OR client_id::text = $2)
		ORDER BY response_deadline ASC
	`
	rows, err := r.db.Query(ctx, query, now, scopeClientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.RescheduleRequest, 0)
	for rows.Next() {
		request, err := scanReschedule(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
