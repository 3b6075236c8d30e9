// Package scheduler triggers the daily dataset warm-up.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/brclima/painel-umidade/internal/store"
)

// warmUpAt is shortly after midnight in the operating timezone, so the
// rollover rebuild happens eagerly instead of on the first request of the day.
const warmUpAt = "00:05"

// Scheduler rebuilds the daily dataset right after the cache key rolls over.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     *store.DailyStore
	logger    *slog.Logger
}

// New creates a Scheduler running in the operating timezone.
func New(tz *time.Location, st *store.DailyStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(tz),
		store:     st,
		logger:    logger,
	}
}

// Start schedules the daily warm-up job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(warmUpAt).Do(func() {
		s.logger.Info("scheduler: daily dataset warm-up")

		// Not forced: the key has rolled over, so Get rebuilds naturally and
		// shares the same mutual-exclusion path as /refresh.
		if _, err := s.store.Get(context.Background(), false); err != nil {
			s.logger.Error("scheduler: warm-up failed", "error", err)
			return
		}
		s.logger.Info("scheduler: warm-up complete")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
