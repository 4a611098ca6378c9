// Package worker runs background jobs that keep reschedule negotiations
// from outliving their response window.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saeid-a/PeerSupportBack/internal/models"
	"go.uber.org/zap"
)

const defaultSweepInterval = time.Minute

// Sweeper is satisfied by services.SweepService.
type Sweeper interface {
	SweepExpired(ctx context.Context, scopeClientID string) (models.SweepResult, error)
}

// SweepPoller runs a full sweep once at start and then on every tick until
// stopped.
type SweepPoller struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger

	shutdown     chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once
}

type Option func(*SweepPoller)

func WithInterval(interval time.Duration) Option {
	return func(p *SweepPoller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *SweepPoller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewSweepPoller(sweeper Sweeper, opts ...Option) *SweepPoller {
	p := &SweepPoller{
		sweeper:  sweeper,
		interval: defaultSweepInterval,
		logger:   zap.NewNop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("sweep-poller")
	return p
}

// Run blocks until ctx is cancelled or Shutdown is called. A failed pass is
// logged and retried on the next tick.
func (p *SweepPoller) Run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("sweep poller started", zap.Duration("interval", p.interval))
	p.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.sweepOnce(ctx)
		}
	}
}

func (p *SweepPoller) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (p *SweepPoller) sweepOnce(ctx context.Context) {
	result, err := p.sweeper.SweepExpired(ctx, "")
	if err != nil {
		p.logger.Error("sweep pass failed",
			zap.Int("processed", result.ProcessedCount),
			zap.Error(err),
		)
		return
	}
	if result.ProcessedCount > 0 {
		p.logger.Info("sweep pass finished",
			zap.Int("processed", result.ProcessedCount),
			zap.Int("cancelled_sessions", len(result.CancelledSessionIDs)),
		)
	}
}
