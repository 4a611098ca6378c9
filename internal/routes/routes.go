package routes

import (
	"context"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/config"
	"github.com/saeid-a/PeerSupportBack/internal/handlers"
	"github.com/saeid-a/PeerSupportBack/internal/middleware"
	"github.com/saeid-a/PeerSupportBack/internal/observability"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
	"github.com/saeid-a/PeerSupportBack/internal/services"
	notifyws "github.com/saeid-a/PeerSupportBack/internal/websocket"
)

// Database is a pool that can also open transactions.
type Database interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Dependencies are the long-lived collaborators built by main.
type Dependencies struct {
	DB      Database
	Hub     *notifyws.Hub
	Runtime services.Runtime
	Metrics *observability.Metrics
}

// RegisterRoutes wires repositories, services and handlers onto app. The
// returned sweep service is shared with the background poller.
func RegisterRoutes(app *fiber.App, cfg *config.Config, deps Dependencies) *services.SweepService {
	sessionRepo := repository.NewSessionRepository(deps.DB)
	rescheduleRepo := repository.NewRescheduleRepository(deps.DB)
	supporterRepo := repository.NewSupporterProfileRepository(deps.DB)
	assignmentRepo := repository.NewAssignmentRepository(deps.DB)
	notificationRepo := repository.NewNotificationRepository(deps.DB)

	matchmakingService := services.NewMatchmakingService(supporterRepo, deps.Runtime)
	assignmentService := services.NewAssignmentService(matchmakingService, assignmentRepo, deps.Runtime)
	sessionService := services.NewSessionService(sessionRepo, assignmentRepo, deps.Runtime)
	rescheduleService := services.NewRescheduleService(sessionRepo, rescheduleRepo, services.NewPgxTransactor(deps.DB), deps.Runtime)
	sweepService := services.NewSweepService(sessionRepo, rescheduleRepo, deps.Runtime)

	matchHandler := handlers.NewMatchHandler(matchmakingService, cfg.MatchLimit)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	rescheduleHandler := handlers.NewRescheduleHandler(rescheduleService, sweepService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, deps.Hub, cfg.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}

	app.Use("/ws", notificationHandler.WebSocketAuth)
	app.Get("/ws", websocket.New(notificationHandler.HandleWebSocket))

	api := app.Group("/api/v1", middleware.AuthRequired(cfg.JWTSecret))
	clientOnly := middleware.RequireRole(services.RoleClient)
	supporterOnly := middleware.RequireRole(services.RoleSupporter)

	api.Post("/matches", clientOnly, matchHandler.Match)

	assignments := api.Group("/assignments", clientOnly)
	assignments.Post("", assignmentHandler.Create)
	assignments.Get("/active", assignmentHandler.Active)
	assignments.Post("/active/pause", assignmentHandler.Pause)
	assignments.Post("/active/resume", assignmentHandler.Resume)
	assignments.Post("/active/end", assignmentHandler.End)

	sessions := api.Group("/sessions")
	sessions.Post("", clientOnly, sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/start", sessionHandler.StartSession)
	sessions.Post("/:id/complete", sessionHandler.CompleteSession)
	sessions.Post("/:id/no-show", sessionHandler.MarkNoShow)
	sessions.Post("/:id/cancel", sessionHandler.CancelSession)
	sessions.Post("/:id/reschedules", supporterOnly, rescheduleHandler.RequestReschedule)
	sessions.Get("/:id/reschedules/pending", rescheduleHandler.PendingReschedule)

	reschedules := api.Group("/reschedules", clientOnly)
	reschedules.Post("/sweep", rescheduleHandler.Sweep)
	reschedules.Post("/:id/accept", rescheduleHandler.Accept)
	reschedules.Post("/:id/decline", rescheduleHandler.Decline)

	api.Get("/notifications", notificationHandler.List)

	return sweepService
}
