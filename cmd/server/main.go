package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/saeid-a/PeerSupportBack/internal/config"
	"github.com/saeid-a/PeerSupportBack/internal/database"
	"github.com/saeid-a/PeerSupportBack/internal/notify"
	"github.com/saeid-a/PeerSupportBack/internal/observability"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
	"github.com/saeid-a/PeerSupportBack/internal/resilience"
	"github.com/saeid-a/PeerSupportBack/internal/routes"
	"github.com/saeid-a/PeerSupportBack/internal/services"
	notifyws "github.com/saeid-a/PeerSupportBack/internal/websocket"
	"github.com/saeid-a/PeerSupportBack/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		return errors.New("DB_URL is required")
	}
	pool, err := database.ConnectDB(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer pool.Close()

	// 3. Collaborators
	metrics := observability.NewMetrics()
	hub := notifyws.NewHub(logger.Named("ws"))
	dispatcher := notify.NewDispatcher(repository.NewNotificationRepository(pool), hub, notify.Options{
		Timeout: cfg.NotifyTimeout,
		Retry: resilience.RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 100 * time.Millisecond,
		},
		Logger: logger.Named("notify"),
	})
	rt := services.Runtime{
		Clock:    services.SystemClock{},
		Notifier: dispatcher,
		Logger:   logger,
		Metrics:  metrics,
	}

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{DisableStartupMessage: !cfg.IsDevelopment()})
	app.Use(cors.New())
	app.Use(recover.New())
	app.Use(observability.RequestLogger(logger.Named("http")))
	app.Use(metrics.Middleware())

	sweepService := routes.RegisterRoutes(app, cfg, routes.Dependencies{
		DB:      pool,
		Hub:     hub,
		Runtime: rt,
		Metrics: metrics,
	})
	poller := worker.NewSweepPoller(sweepService,
		worker.WithInterval(cfg.SweepInterval),
		worker.WithLogger(logger),
	)

	// 5. Run until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			app.ShutdownWithContext(shutdownCtx),
			poller.Shutdown(shutdownCtx),
		)
	})

	return g.Wait()
}
