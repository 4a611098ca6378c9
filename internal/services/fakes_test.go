package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
)

type fakeSessions struct {
	mu        sync.Mutex
	sessions  map[string]models.Session
	seq       int
	updateErr error
}

func newFakeSessions(sessions ...models.Session) *fakeSessions {
	f := &fakeSessions{sessions: make(map[string]models.Session)}
	for _, session := range sessions {
		f.sessions[session.ID] = session
	}
	return f
}

func (f *fakeSessions) Create(_ context.Context, input repository.CreateSessionInput) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	session := models.Session{
		ID:              fmt.Sprintf("session-%d", f.seq),
		ClientID:        input.ClientID,
		SupporterID:     input.SupporterID,
		SessionType:     input.SessionType,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: input.DurationMinutes,
		PriceCents:      input.PriceCents,
		Status:          models.SessionScheduled,
	}
	f.sessions[session.ID] = session
	return &session, nil
}

func (f *fakeSessions) GetByID(_ context.Context, sessionID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &session, nil
}

func (f *fakeSessions) List(_ context.Context, filter repository.SessionListFilter) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions := make([]models.Session, 0)
	for _, session := range f.sessions {
		owner := session.ClientID
		if filter.Role == RoleSupporter {
			owner = session.SupporterID
		}
		if owner == filter.ActorID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (f *fakeSessions) UpdateStatusIfCurrent(
	_ context.Context,
	sessionID string,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, f.updateErr
	}
	session, ok := f.sessions[sessionID]
	if !ok || session.Status != currentStatus {
		return nil, pgx.ErrNoRows
	}
	session.Status = nextStatus
	f.sessions[sessionID] = session
	return &session, nil
}

func (f *fakeSessions) UpdateScheduleIfStatus(
	_ context.Context,
	sessionID string,
	status models.SessionStatus,
	scheduledAt time.Time,
) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok || session.Status != status {
		return nil, pgx.ErrNoRows
	}
	session.ScheduledAt = scheduledAt
	f.sessions[sessionID] = session
	return &session, nil
}

func (f *fakeSessions) get(sessionID string) models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionID]
}

func (f *fakeSessions) put(session models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
}

type fakeReschedules struct {
	mu       sync.Mutex
	requests map[string]models.RescheduleRequest
	listErr  error
	// afterUpdate runs once a status change has been stored, outside the lock.
	afterUpdate func(models.RescheduleRequest)
}

func newFakeReschedules(requests ...models.RescheduleRequest) *fakeReschedules {
	f := &fakeReschedules{requests: make(map[string]models.RescheduleRequest)}
	for _, request := range requests {
		f.requests[request.ID] = request
	}
	return f
}

func (f *fakeReschedules) Create(_ context.Context, request models.RescheduleRequest) (*models.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.requests {
		if existing.SessionID == request.SessionID && existing.Status == models.ReschedulePending {
			return nil, repository.ErrUniqueViolation
		}
	}
	request.Status = models.ReschedulePending
	f.requests[request.ID] = request
	return &request, nil
}

func (f *fakeReschedules) GetByID(_ context.Context, requestID string) (*models.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	request, ok := f.requests[requestID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &request, nil
}

func (f *fakeReschedules) GetPendingBySessionID(_ context.Context, sessionID string) (*models.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, request := range f.requests {
		if request.SessionID == sessionID && request.Status == models.ReschedulePending {
			return &request, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeReschedules) UpdateStatusIfCurrent(
	_ context.Context,
	requestID string,
	currentStatus models.RescheduleStatus,
	nextStatus models.RescheduleStatus,
	respondedAt time.Time,
) (*models.RescheduleRequest, error) {
	f.mu.Lock()
	request, ok := f.requests[requestID]
	if !ok || request.Status != currentStatus {
		f.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	request.Status = nextStatus
	request.RespondedAt = &respondedAt
	f.requests[requestID] = request
	hook := f.afterUpdate
	f.mu.Unlock()

	if hook != nil {
		hook(request)
	}
	return &request, nil
}

func (f *fakeReschedules) ListExpiredPending(_ context.Context, now time.Time, scopeClientID string) ([]models.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	expired := make([]models.RescheduleRequest, 0)
	for _, request := range f.requests {
		if request.Status != models.ReschedulePending || !request.ResponseDeadline.Before(now) {
			continue
		}
		if scopeClientID != "" && request.ClientID != scopeClientID {
			continue
		}
		expired = append(expired, request)
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ResponseDeadline.Before(expired[j].ResponseDeadline)
	})
	return expired, nil
}

func (f *fakeReschedules) get(requestID string) models.RescheduleRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[requestID]
}

func (f *fakeReschedules) put(request models.RescheduleRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[request.ID] = request
}

// fakeTransactor gives the in-memory stores rollback: every write made
// inside InTx is reverted when fn fails.
type fakeTransactor struct {
	sessions *fakeSessions
	requests *fakeReschedules
}

func (f *fakeTransactor) InTx(_ context.Context, fn func(sessions SessionStore, requests RescheduleStore) error) error {
	var undo []func()
	err := fn(
		&txSessions{fakeSessions: f.sessions, undo: &undo},
		&txReschedules{fakeReschedules: f.requests, undo: &undo},
	)
	if err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
	return err
}

type txSessions struct {
	*fakeSessions
	undo *[]func()
}

func (t *txSessions) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID string,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	before := t.get(sessionID)
	updated, err := t.fakeSessions.UpdateStatusIfCurrent(ctx, sessionID, currentStatus, nextStatus)
	if err == nil {
		*t.undo = append(*t.undo, func() { t.put(before) })
	}
	return updated, err
}

func (t *txSessions) UpdateScheduleIfStatus(
	ctx context.Context,
	sessionID string,
	status models.SessionStatus,
	scheduledAt time.Time,
) (*models.Session, error) {
	before := t.get(sessionID)
	updated, err := t.fakeSessions.UpdateScheduleIfStatus(ctx, sessionID, status, scheduledAt)
	if err == nil {
		*t.undo = append(*t.undo, func() { t.put(before) })
	}
	return updated, err
}

type txReschedules struct {
	*fakeReschedules
	undo *[]func()
}

func (t *txReschedules) UpdateStatusIfCurrent(
	ctx context.Context,
	requestID string,
	currentStatus models.RescheduleStatus,
	nextStatus models.RescheduleStatus,
	respondedAt time.Time,
) (*models.RescheduleRequest, error) {
	before := t.get(requestID)
	updated, err := t.fakeReschedules.UpdateStatusIfCurrent(ctx, requestID, currentStatus, nextStatus, respondedAt)
	if err == nil {
		*t.undo = append(*t.undo, func() { t.put(before) })
	}
	return updated, err
}

type fakeAssignments struct {
	mu          sync.Mutex
	assignments map[string]models.ClientAssignment
	seq         int
}

func newFakeAssignments(assignments ...models.ClientAssignment) *fakeAssignments {
	f := &fakeAssignments{assignments: make(map[string]models.ClientAssignment)}
	for _, assignment := range assignments {
		f.assignments[assignment.ID] = assignment
	}
	return f
}

func (f *fakeAssignments) Create(_ context.Context, clientID, supporterID string, startedAt time.Time) (*models.ClientAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.assignments {
		if existing.ClientID == clientID && existing.Status != models.AssignmentEnded {
			return nil, repository.ErrUniqueViolation
		}
	}
	f.seq++
	assignment := models.ClientAssignment{
		ID:          fmt.Sprintf("assignment-%d", f.seq),
		ClientID:    clientID,
		SupporterID: supporterID,
		Status:      models.AssignmentActive,
		StartedAt:   startedAt,
	}
	f.assignments[assignment.ID] = assignment
	return &assignment, nil
}

func (f *fakeAssignments) GetCurrentByClientID(_ context.Context, clientID string) (*models.ClientAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, assignment := range f.assignments {
		if assignment.ClientID == clientID && assignment.Status != models.AssignmentEnded {
			return &assignment, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAssignments) UpdateStatusIfCurrent(
	_ context.Context,
	assignmentID string,
	currentStatus models.AssignmentStatus,
	nextStatus models.AssignmentStatus,
	endedAt *time.Time,
	endReason *string,
) (*models.ClientAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assignment, ok := f.assignments[assignmentID]
	if !ok || assignment.Status != currentStatus {
		return nil, pgx.ErrNoRows
	}
	assignment.Status = nextStatus
	assignment.EndedAt = endedAt
	assignment.EndReason = endReason
	f.assignments[assignmentID] = assignment
	return &assignment, nil
}

type stubDirectory struct {
	profiles   []models.SupporterProfile
	err        error
	lastFilter repository.SupporterListFilter
}

// ListEligible narrows by session type the same way the SQL overlap does.
func (s *stubDirectory) ListEligible(_ context.Context, filter repository.SupporterListFilter) ([]models.SupporterProfile, error) {
	s.lastFilter = filter
	if s.err != nil || len(filter.SessionTypes) == 0 {
		return s.profiles, s.err
	}

	profiles := make([]models.SupporterProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		if sharesSessionType(profile.SessionTypes, filter.SessionTypes) {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

func sharesSessionType(offered, wanted []models.SessionType) bool {
	for _, o := range offered {
		for _, w := range wanted {
			if o == w {
				return true
			}
		}
	}
	return false
}

type sentNotification struct {
	recipientID string
	kind        models.NotificationKind
	payload     map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID string, kind models.NotificationKind, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentNotification{recipientID: recipientID, kind: kind, payload: payload})
	return n.err
}

func (n *recordingNotifier) recipients(kind models.NotificationKind) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	recipients := make([]string, 0)
	for _, sent := range n.sent {
		if sent.kind == kind {
			recipients = append(recipients, sent.recipientID)
		}
	}
	sort.Strings(recipients)
	return recipients
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

var testNow = time.Date(2030, 3, 15, 9, 0, 0, 0, time.UTC)

func scheduledSession(id string, scheduledAt time.Time) models.Session {
	return models.Session{
		ID:              id,
		ClientID:        "client-1",
		SupporterID:     "supporter-1",
		SessionType:     models.SessionTypeVideo,
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
		PriceCents:      2000,
		Status:          models.SessionScheduled,
	}
}
