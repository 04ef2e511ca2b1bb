package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "intel_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the report query pipeline.
type Metrics struct {
	Queries       *prometheus.CounterVec   // labels: aor, outcome={success,error}
	QueryDuration *prometheus.HistogramVec // labels: aor
	StoreUp       prometheus.Gauge

	// Normalization metrics.
	DocumentsFetched  *prometheus.CounterVec // labels: aor
	RowsDropped       *prometheus.CounterVec // labels: aor, reason={invalid_position,invalid_intensity}
	InvalidTimestamps *prometheus.CounterVec // labels: aor
	EmptyDatasets     *prometheus.CounterVec // labels: aor, cause={no_documents,all_filtered}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Queries,
		m.QueryDuration,
		m.StoreUp,
		m.DocumentsFetched,
		m.RowsDropped,
		m.InvalidTimestamps,
		m.EmptyDatasets,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_queries_total",
			Help:      "Report store queries by AOR and outcome.",
		}, []string{"aor", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_query_duration_seconds",
			Help:      "Duration of a complete query-and-normalize cycle.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"aor"}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_up",
			Help:      "1 when the last store ping succeeded, 0 otherwise.",
		}),
		DocumentsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_fetched_total",
			Help:      "Raw report documents returned by the store.",
		}, []string{"aor"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Documents excluded during normalization, by reason.",
		}, []string{"aor", "reason"}),
		InvalidTimestamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_timestamps_total",
			Help:      "Kept rows whose timestamp could not be parsed.",
		}, []string{"aor"}),
		EmptyDatasets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_datasets_total",
			Help:      "Queries that produced no renderable rows, by cause.",
		}, []string{"aor", "cause"}),
	}
}
