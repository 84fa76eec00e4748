package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windgrid"

// Metrics holds the Prometheus counters, histograms, and gauges for the grid pipeline.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration        prometheus.Histogram
	LastSuccess        prometheus.Gauge
	FeaturesFetched    prometheus.Gauge
	SamplesRetained    *prometheus.GaugeVec // labels: height
	GridCells          *prometheus.GaugeVec // labels: height
	EnvelopesWritten   *prometheus.CounterVec // labels: sink={file,kafka}
	UpstreamRequests   *prometheus.CounterVec // labels: outcome={success,error,circuit_open}
	UpstreamDuration   prometheus.Histogram
	ScheduledRunActive prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.LastSuccess,
		m.FeaturesFetched,
		m.SamplesRetained,
		m.GridCells,
		m.EnvelopesWritten,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.ScheduledRunActive,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-convert-load run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		FeaturesFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features_fetched",
			Help:      "Point features returned by the forecast source in the last run.",
		}),
		SamplesRetained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples_retained",
			Help:      "Samples kept after forecast horizon selection, per height.",
		}, []string{"height"}),
		GridCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_cells",
			Help:      "Lattice cells in the last envelope, per height.",
		}, []string{"height"}),
		EnvelopesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_written_total",
			Help:      "Grid envelopes delivered, per sink.",
		}, []string{"sink"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Forecast API requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Forecast API request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ScheduledRunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the periodic scheduler is active, 0 otherwise.",
		}),
	}
}
