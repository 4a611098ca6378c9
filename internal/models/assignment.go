package models

import "time"

type AssignmentStatus string

const (
	AssignmentActive AssignmentStatus = "active"
	AssignmentPaused AssignmentStatus = "paused"
	AssignmentEnded  AssignmentStatus = "ended"
)

type ClientAssignment struct {
	ID          string           `json:"id"`
	ClientID    string           `json:"client_id"`
	SupporterID string           `json:"supporter_id"`
	Status      AssignmentStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	EndedAt     *time.Time       `json:"ended_at,omitempty"`
	EndReason   *string          `json:"end_reason,omitempty"`
}

type AssignmentDetail struct {
	Assignment ClientAssignment `json:"assignment"`
	Match      MatchResult      `json:"match"`
}
