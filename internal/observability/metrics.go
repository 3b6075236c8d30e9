package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the forecast pipeline and the
// daily cache.
type Metrics struct {
	FetchRequests *prometheus.CounterVec // labels: outcome={ok,empty,error}
	SamplesTotal  *prometheus.CounterVec // labels: value={known,unknown}

	RebuildDuration prometheus.Histogram
	CacheLookups    *prometheus.CounterVec // labels: result={hit,rebuild}
	DemoFallbacks   prometheus.Counter
	DatasetRows     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umidade",
			Name:      "fetch_requests_total",
			Help:      "Forecast endpoint requests by outcome.",
		}, []string{"outcome"}),
		SamplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umidade",
			Name:      "samples_total",
			Help:      "Collected samples by whether a humidity value was known.",
		}, []string{"value"}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "umidade",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of a full dataset rebuild.",
			Buckets:   []float64{0.1, 1, 5, 15, 60, 120, 300, 600, 1800},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umidade",
			Name:      "cache_lookups_total",
			Help:      "Daily cache lookups by result.",
		}, []string{"result"}),
		DemoFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umidade",
			Name:      "demo_fallbacks_total",
			Help:      "Rebuilds that fell back to the demonstration dataset.",
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "umidade",
			Name:      "dataset_rows",
			Help:      "Rows in the currently served dataset.",
		}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.SamplesTotal,
		m.RebuildDuration,
		m.CacheLookups,
		m.DemoFallbacks,
		m.DatasetRows,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when multiple tests build a pipeline.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "umidade", Name: "fetch_requests_total"}, []string{"outcome"}),
		SamplesTotal:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "umidade", Name: "samples_total"}, []string{"value"}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "umidade", Name: "rebuild_duration_seconds"}),
		CacheLookups:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "umidade", Name: "cache_lookups_total"}, []string{"result"}),
		DemoFallbacks:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "umidade", Name: "demo_fallbacks_total"}),
		DatasetRows:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "umidade", Name: "dataset_rows"}),
	}
}
