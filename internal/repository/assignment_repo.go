package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
)

type AssignmentRepository struct {
	db DBTX
}

func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, client_id, supporter_id, status, started_at, ended_at, end_reason`

func scanAssignment(row pgx.Row) (*models.ClientAssignment, error) {
	var assignment models.ClientAssignment
	err := row.Scan(
		&assignment.ID,
		&assignment.ClientID,
		&assignment.SupporterID,
		&assignment.Status,
		&assignment.StartedAt,
		&assignment.EndedAt,
		&assignment.EndReason,
	)
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) Create(
	ctx context.Context,
	clientID string,
	supporterID string,
	startedAt time.Time,
) (*models.ClientAssignment, error) {
	query := `
		INSERT INTO client_assignments (client_id, supporter_id, status, started_at)
		VALUES ($1, $2, 'active', $3)
		RETURNING ` + assignmentColumns
	assignment, err := scanAssignment(r.db.QueryRow(ctx, query, clientID, supporterID, startedAt))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return assignment, nil
}

// GetCurrentByClientID returns the client's active or paused assignment.
func (r *AssignmentRepository) GetCurrentByClientID(ctx context.Context, clientID string) (*models.ClientAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM client_assignments
		WHERE client_id = $1 AND status IN ('active', 'paused')
		ORDER BY started_at DESC
		LIMIT 1
	`
	return scanAssignment(r.db.QueryRow(ctx, query, clientID))
}

func (r *AssignmentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	assignmentID string,
	currentStatus models.AssignmentStatus,
	nextStatus models.AssignmentStatus,
	endedAt *time.Time,
	endReason *string,
) (*models.ClientAssignment, error) {
	query := `
		UPDATE client_assignments
		SET status = $3, ended_at = $4, end_reason = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + assignmentColumns
	assignment, err := scanAssignment(r.db.QueryRow(ctx, query, assignmentID, currentStatus, nextStatus, endedAt, endReason))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return assignment, nil
}
