package humidity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brclima/painel-umidade/internal/observability"
)

const (
	// pauseEveryRows inserts a cooperative pause after roughly this many
	// emitted rows so a full-country run does not hammer the endpoint.
	pauseEveryRows = 1000
	pauseDuration  = 200 * time.Millisecond
)

// Collector fans the Forecaster out across all municipalities through a
// bounded worker pool and assembles one Sample per (municipality, target
// date). A municipality whose fetch fails contributes rows with unknown
// humidity; it never aborts the run or its siblings.
type Collector struct {
	forecaster Forecaster
	workers    int
	clock      clockwork.Clock
	tz         *time.Location
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewCollector creates a Collector. workers <= 0 falls back to a single
// worker; the bound exists because the municipality count is in the tens of
// thousands.
func NewCollector(f Forecaster, workers int, clock clockwork.Clock, tz *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	if workers <= 0 {
		workers = 1
	}
	return &Collector{
		forecaster: f,
		workers:    workers,
		clock:      clock,
		tz:         tz,
		logger:     logger,
		metrics:    metrics,
	}
}

// Collect runs one collection pass and returns the flat sample table plus the
// run's target dates. The output always has exactly len(munis)*ForecastDays
// rows regardless of how many fetches fail. Target dates are computed once,
// before the first fetch.
func (c *Collector) Collect(ctx context.Context, munis []Municipality) ([]Sample, []string) {
	dates := TargetDates(c.clock.Now().In(c.tz))

	var (
		mu      sync.Mutex
		samples = make([]Sample, 0, len(munis)*ForecastDays)
		emitted atomic.Int64
		wg      sync.WaitGroup
	)

	jobs := make(chan Municipality)

	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				var dayMap map[string]*float64
				if ctx.Err() == nil {
					dayMap = c.forecaster.MinHumidity(ctx, m.Code)
				}

				rows := make([]Sample, 0, ForecastDays)
				for _, d := range dates {
					rh := dayMap[d] // nil when the date is absent or the fetch failed
					rows = append(rows, Sample{
						Code:  m.Code,
						Name:  m.Name,
						UF:    m.UF,
						Lat:   m.Lat,
						Lon:   m.Lon,
						Date:  d,
						RHmin: rh,
					})
					value := "unknown"
					if rh != nil {
						value = "known"
					}
					c.metrics.SamplesTotal.WithLabelValues(value).Inc()
				}

				mu.Lock()
				samples = append(samples, rows...)
				mu.Unlock()

				if emitted.Add(ForecastDays)%pauseEveryRows == 0 {
					c.clock.Sleep(pauseDuration)
				}
			}
		}()
	}

	for _, m := range munis {
		jobs <- m
	}
	close(jobs)
	wg.Wait()

	known := 0
	for i := range samples {
		if samples[i].RHmin != nil {
			known++
		}
	}
	if known == 0 {
		// The table is still returned in full: the dashboard shows gap
		// markers and a forced refresh can pick the data up later.
		c.logger.Warn("collection produced no usable humidity values",
			"municipalities", len(munis), "rows", len(samples))
	} else {
		c.logger.Info("collection finished",
			"municipalities", len(munis), "rows", len(samples), "known", known)
	}

	return samples, dates
}
