package models

import "time"

type NotificationKind string

const (
	NotifyRescheduleRequested     NotificationKind = "reschedule_requested"
	NotifyRescheduleAccepted      NotificationKind = "reschedule_accepted"
	NotifyRescheduleDeclined      NotificationKind = "reschedule_declined"
	NotifyRescheduleAutoCancelled NotificationKind = "reschedule_auto_cancelled"
	NotifySessionCancelled        NotificationKind = "session_cancelled"
	NotifySessionBooked           NotificationKind = "session_booked"
	NotifyAssignmentCreated       NotificationKind = "assignment_created"
	NotifyAssignmentEnded         NotificationKind = "assignment_ended"
)

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	Payload     map[string]any   `json:"payload"`
	CreatedAt   time.Time        `json:"created_at"`
}
