package models

import "time"

type RescheduleStatus string

const (
	ReschedulePending       RescheduleStatus = "pending"
	RescheduleAccepted      RescheduleStatus = "accepted"
	RescheduleDeclined      RescheduleStatus = "declined"
	RescheduleAutoCancelled RescheduleStatus = "auto_cancelled"
)

type RescheduleRequest struct {
	ID                  string           `json:"id"`
	SessionID           string           `json:"session_id"`
	SupporterID         string           `json:"supporter_id"`
	ClientID            string           `json:"client_id"`
	OriginalScheduledAt time.Time        `json:"original_scheduled_at"`
	ProposedScheduledAt time.Time        `json:"proposed_scheduled_at"`
	Status              RescheduleStatus `json:"status"`
	Reason              *string          `json:"reason,omitempty"`
	ResponseDeadline    time.Time        `json:"response_deadline"`
	RespondedAt         *time.Time       `json:"responded_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

type SweepResult struct {
	ProcessedCount      int      `json:"processed_count"`
	CancelledSessionIDs []string `json:"cancelled_session_ids"`
}
