package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storet"

// Metrics holds the Prometheus collectors for a parse run and the query API.
type Metrics struct {
	// Parse pipeline, labelled by role={inv,sta,res}.
	FilesDiscovered *prometheus.GaugeVec
	FilesUnreadable *prometheus.CounterVec
	LinesRead       *prometheus.CounterVec
	RowsWritten     *prometheus.CounterVec
	RowsSkipped     *prometheus.CounterVec // role, reason
	Duplicates      *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	RunComplete     prometheus.Gauge

	// Query API.
	Requests        *prometheus.CounterVec // endpoint, outcome={ok,error}
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesDiscovered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_discovered",
			Help:      "Source files discovered per role.",
		}, []string{"role"}),
		FilesUnreadable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_unreadable_total",
			Help:      "Source files skipped because they could not be opened.",
		}, []string{"role"}),
		LinesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Data lines read (header and separator excluded).",
		}, []string{"role"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows accepted into the normalised output.",
		}, []string{"role"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Data lines dropped by the decoders.",
		}, []string{"role", "reason"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_total",
			Help:      "Entities discarded because their key was already registered.",
		}, []string{"role"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last parse run.",
		}),
		RunComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_complete",
			Help:      "1 when the last parse run produced complete output.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Query API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Query API request duration.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"endpoint"}),
	}

	reg.MustRegister(
		m.FilesDiscovered,
		m.FilesUnreadable,
		m.LinesRead,
		m.RowsWritten,
		m.RowsSkipped,
		m.Duplicates,
		m.RunDuration,
		m.RunComplete,
		m.Requests,
		m.RequestDuration,
	)
	return m
}

// NewMetricsForTesting registers into a throwaway registry.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// WriteTextfile writes every metric gathered by g to path in the Prometheus
// text format (node_exporter textfile collector).
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
