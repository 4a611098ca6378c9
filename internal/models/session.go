package models

import "time"

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
	SessionNoShow     SessionStatus = "no_show"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled || s == SessionNoShow
}

type Session struct {
	ID              string        `json:"id"`
	ClientID        string        `json:"client_id"`
	SupporterID     string        `json:"supporter_id"`
	SessionType     SessionType   `json:"session_type"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	PriceCents      int64         `json:"price_cents"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Initiator identifies which party triggered a cancellation.
type Initiator string

const (
	InitiatorClient    Initiator = "client"
	InitiatorSupporter Initiator = "supporter"
)

type RefundDecision struct {
	Percentage  int    `json:"percentage"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

type SessionCancellation struct {
	Session Session        `json:"session"`
	Refund  RefundDecision `json:"refund"`
}
