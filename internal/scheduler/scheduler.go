package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/wind-grid-etl/internal/observability"
)

// Runner performs one pipeline run.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler re-runs the pipeline on a fixed interval. The first run starts
// immediately; runs never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Scheduler. Call Start to begin running.
func New(runner Runner, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start schedules the periodic job. Runs use ctx, so cancelling it aborts an
// in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.logger.Info("scheduled run starting")
		if err := s.runner.Run(ctx); err != nil {
			// Run logs and counts its own failures.
			s.logger.Warn("scheduled run failed, waiting for next tick", "next_in", s.interval)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule run: %w", err)
	}

	s.scheduler.StartAsync()
	s.metrics.ScheduledRunActive.Set(1)
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// TriggerRun queues an immediate run. It is dropped if a run is in progress.
func (s *Scheduler) TriggerRun() {
	s.scheduler.RunAll()
}

// Stop cancels future runs and waits for the current one to return.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.metrics.ScheduledRunActive.Set(0)
	s.logger.Info("scheduler stopped")
}
