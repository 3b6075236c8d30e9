// Package store holds the daily in-memory dataset cache.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/brclima/painel-umidade/internal/humidity"
	"github.com/brclima/painel-umidade/internal/observability"
)

// BuildFunc runs one full collection pass and returns the raw sample table
// plus the run's target dates. Any error (or panic, which the store recovers)
// triggers the demo fallback.
type BuildFunc func(ctx context.Context) ([]humidity.Sample, []string, error)

// DailyStore memoizes the sanitized dataset keyed by the current calendar
// date in the operating timezone. It is the only process-wide mutable state:
// the key comparison, rebuild, and swap all happen under one mutex, so
// concurrent dashboard reads and a forced refresh can never interleave into
// an inconsistent (key, dataset) pair. Readers receive the stored snapshot
// and must not mutate it.
type DailyStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	tz      *time.Location
	build   BuildFunc
	logger  *slog.Logger
	metrics *observability.Metrics

	key     string
	dataset *humidity.Dataset
}

// NewDailyStore creates an empty store; the first Get populates it.
func NewDailyStore(clock clockwork.Clock, tz *time.Location, build BuildFunc, logger *slog.Logger, metrics *observability.Metrics) *DailyStore {
	return &DailyStore{
		clock:   clock,
		tz:      tz,
		build:   build,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the dataset for the current operating-timezone calendar day,
// rebuilding it when the day has rolled over, when nothing is stored yet, or
// when force is true. A rebuild that fails for any reason falls back to the
// demonstration dataset, so callers always receive a schema-valid dataset.
func (s *DailyStore) Get(ctx context.Context, force bool) (*humidity.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.clock.Now().In(s.tz).Format(humidity.DateLayout)
	if !force && s.key == key && s.dataset != nil {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return s.dataset, nil
	}
	s.metrics.CacheLookups.WithLabelValues("rebuild").Inc()
	s.logger.Info("rebuilding dataset", "key", key, "force", force)

	start := s.clock.Now()
	ds, err := s.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RebuildDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.DatasetRows.Set(float64(len(ds.Samples)))

	// Swap key and dataset together; partial updates never escape the lock.
	s.key = key
	s.dataset = ds

	return ds, nil
}

// rebuild runs the pipeline and sanitizes its output, degrading to the demo
// dataset when the pipeline errors, panics, or produces an empty table.
func (s *DailyStore) rebuild(ctx context.Context) (*humidity.Dataset, error) {
	samples, dates, err := s.safeBuild(ctx)

	clean, sanErr := []humidity.Sample(nil), error(nil)
	if err == nil {
		clean, sanErr = humidity.Sanitize(samples)
	}

	demo := false
	if err != nil || sanErr != nil {
		if err == nil {
			err = sanErr
		}
		s.logger.Warn("collection pipeline failed, serving demo dataset", "error", err)
		s.metrics.DemoFallbacks.Inc()
		demo = true

		dates = humidity.TargetDates(s.clock.Now().In(s.tz))
		clean, sanErr = humidity.Sanitize(humidity.DemoSamples(dates))
		if sanErr != nil {
			return nil, fmt.Errorf("sanitize demo dataset: %w", sanErr)
		}
	}

	return &humidity.Dataset{
		RunID:   uuid.New(),
		BuiltAt: s.clock.Now(),
		Dates:   dates,
		Samples: clean,
		Demo:    demo,
	}, nil
}

// safeBuild calls the pipeline and converts a panic into an error, so a bug
// anywhere in collection degrades to the demo dataset instead of killing the
// process.
func (s *DailyStore) safeBuild(ctx context.Context) (samples []humidity.Sample, dates []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collection pipeline panic: %v", r)
		}
	}()
	return s.build(ctx)
}
