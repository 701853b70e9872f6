package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard pipeline.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec // labels: outcome={success,http_error,network_error,parse_error,fallback}
	FetchDuration prometheus.Histogram
	RowsLoaded    prometheus.Gauge

	// Cache metrics.
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss,stale}
	Invalidations prometheus.Counter

	// Snapshot (filter/view) metrics.
	SnapshotDuration prometheus.Histogram
	SnapshotErrors   prometheus.Counter
	ServiceReady     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irve_dashboard",
			Name:      "fetches_total",
			Help:      "Dataset fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "irve_dashboard",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a dataset download and CSV parse.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "irve_dashboard",
			Name:      "rows_loaded",
			Help:      "Row count of the most recently loaded table.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irve_dashboard",
			Name:      "cache_lookups_total",
			Help:      "Fetch cache lookups by result. A stale result means a failed refresh was served from the last good table.",
		}, []string{"result"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irve_dashboard",
			Name:      "cache_invalidations_total",
			Help:      "Explicit cache invalidations requested by users.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "irve_dashboard",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-derive-filter snapshot.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irve_dashboard",
			Name:      "snapshot_errors_total",
			Help:      "Snapshot requests that failed with no table to serve.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "irve_dashboard",
			Name:      "service_ready",
			Help:      "1 once the pipeline has served at least one snapshot.",
		}),
	}

	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.RowsLoaded,
		m.CacheLookups,
		m.Invalidations,
		m.SnapshotDuration,
		m.SnapshotErrors,
		m.ServiceReady,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchesTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "irve_dashboard", Name: "fetches_total"}, []string{"outcome"}),
		FetchDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "irve_dashboard", Name: "fetch_duration_seconds"}),
		RowsLoaded:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "irve_dashboard", Name: "rows_loaded"}),
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "irve_dashboard", Name: "cache_lookups_total"}, []string{"result"}),
		Invalidations:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "irve_dashboard", Name: "cache_invalidations_total"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "irve_dashboard", Name: "snapshot_duration_seconds"}),
		SnapshotErrors:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "irve_dashboard", Name: "snapshot_errors_total"}),
		ServiceReady:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "irve_dashboard", Name: "service_ready"}),
	}
}
