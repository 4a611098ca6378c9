package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/PeerSupportBack/internal/config"
	"github.com/saeid-a/PeerSupportBack/internal/observability"
	"github.com/saeid-a/PeerSupportBack/internal/services"
	notifyws "github.com/saeid-a/PeerSupportBack/internal/websocket"
	"github.com/saeid-a/PeerSupportBack/pkg/utils"
	"go.uber.org/zap"
)

const testSecret = "routes-test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{JWTSecret: testSecret, MatchLimit: 10}
	app := fiber.New()
	sweeper := RegisterRoutes(app, cfg, Dependencies{
		Hub:     notifyws.NewHub(zap.NewNop()),
		Runtime: services.Runtime{Logger: zap.NewNop()},
		Metrics: observability.NewMetrics(),
	})
	if sweeper == nil {
		t.Fatal("expected a sweep service")
	}
	return app
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()

	token, err := utils.GenerateToken(userID, role, testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return "Bearer " + token
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("app.Test %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestAPIRequiresToken(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestClientRoutesRejectSupporterRole(t *testing.T) {
	app := newTestApp(t)
	authHeader := bearer(t, "5e2d9a40-13c8-4b7f-a6e1-9c0d7b8e2f02", services.RoleSupporter)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/matches"},
		{http.MethodGet, "/api/v1/assignments/active"},
		{http.MethodPost, "/api/v1/reschedules/sweep"},
		{http.MethodPost, "/api/v1/sessions"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", authHeader)

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test %s: %v", tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestRescheduleRequestRejectsClientRole(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/9a1b2c3d-4e5f-4061-8293-a4b5c6d7e803/reschedules",
		strings.NewReader(`{"proposed_scheduled_at":"`+time.Now().Add(48*time.Hour).UTC().Format(time.RFC3339)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "0b6f3c1e-7d0a-4c55-9d6e-2f1a8b3c4d01", services.RoleClient))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
