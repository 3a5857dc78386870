package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Runner interface {
	Reconcile(ctx context.Context) (Stats, error)
}

// Scheduler runs a reconcile cycle at start and then on every tick until its
// context is cancelled.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is done and always returns nil; a failed cycle waits
// for the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("catalog scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("catalog scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("catalog sync panicked", zap.String("panic", fmt.Sprint(rec)))
		}
	}()

	cycleCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if _, err := s.runner.Reconcile(cycleCtx); err != nil {
		s.logger.Warn("catalog sync cycle failed, retrying next tick", zap.Error(err))
	}
}
