package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/services"
)

type stubMatchService struct {
	results   []models.MatchResult
	err       error
	lastPrefs models.ClientPreferences
	lastLimit int
	called    bool
}

func (s *stubMatchService) Match(_ context.Context, prefs models.ClientPreferences, limit int) ([]models.MatchResult, error) {
	s.called = true
	s.lastPrefs = prefs
	s.lastLimit = limit
	return s.results, s.err
}

const matchBody = `{
	"mood": 3,
	"topics": ["anxiety"],
	"preferred_session_types": ["video"],
	"preferred_times": ["morning"],
	"timezone": "Europe/Berlin"
}`

func TestMatchCapsLimitAndForwardsPreferences(t *testing.T) {
	service := &stubMatchService{
		results: []models.MatchResult{{SupporterID: testSupporterID, CompatibilityScore: 60, MatchReasons: []string{"Specializes in anxiety"}}},
	}
	handler := &MatchHandler{service: service, maxLimit: 5}

	app := newActorApp(testClientID, services.RoleClient)
	app.Post("/api/v1/matches", handler.Match)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/matches?limit=50", matchBody)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	if service.lastLimit != 5 {
		t.Fatalf("expected limit capped at 5, got %d", service.lastLimit)
	}
	if service.lastPrefs.Mood != 3 || len(service.lastPrefs.Topics) != 1 || service.lastPrefs.Timezone != "Europe/Berlin" {
		t.Fatalf("unexpected preferences: %+v", service.lastPrefs)
	}
	matches, _ := body["matches"].([]any)
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %#v", body["matches"])
	}
}

func TestMatchDefaultsLimitWhenMissing(t *testing.T) {
	service := &stubMatchService{}
	handler := &MatchHandler{service: service, maxLimit: 5}

	app := newActorApp(testClientID, services.RoleClient)
	app.Post("/api/v1/matches", handler.Match)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/matches?limit=abc", matchBody)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastLimit != 5 {
		t.Fatalf("expected default limit 5, got %d", service.lastLimit)
	}
}

func TestMatchMapsValidationAndDirectoryErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidPreferences, http.StatusBadRequest},
		{services.ErrCollaboratorUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		handler := &MatchHandler{service: &stubMatchService{err: tc.err}, maxLimit: 5}
		app := newActorApp(testClientID, services.RoleClient)
		app.Post("/api/v1/matches", handler.Match)

		resp := doRequest(t, app, http.MethodPost, "/api/v1/matches", matchBody)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, resp.StatusCode)
		}
	}
}

func TestMatchForbiddenForSupporter(t *testing.T) {
	service := &stubMatchService{}
	handler := &MatchHandler{service: service, maxLimit: 5}

	app := newActorApp(testSupporterID, services.RoleSupporter)
	app.Post("/api/v1/matches", handler.Match)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/matches", matchBody)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.called {
		t.Fatal("service should not be called")
	}
}
