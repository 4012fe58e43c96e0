package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics records row counts and durations for dataset uploads.
type ImportMetrics struct {
	duration *prometheus.HistogramVec
	imported *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewImportMetrics registers the import metrics on the provided registerer.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	if reg == nil {
		return &ImportMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "import_duration_seconds",
		Help:    "Duration of dataset imports in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dataset"})
	imported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Rows successfully imported per dataset.",
	}, []string{"dataset"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_skipped_total",
		Help: "Rows skipped or rejected during import per dataset.",
	}, []string{"dataset"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_failures_total",
		Help: "Imports aborted by a transactional failure.",
	}, []string{"dataset"})
	reg.MustRegister(duration, imported, skipped, failure)
	return &ImportMetrics{
		duration: duration,
		imported: imported,
		skipped:  skipped,
		failure:  failure,
	}
}

// ObserveDuration records the wall time of one import run.
func (m *ImportMetrics) ObserveDuration(dataset string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(dataset)).Observe(d.Seconds())
}

// AddImported adds successfully written rows.
func (m *ImportMetrics) AddImported(dataset string, n int) {
	if m == nil || m.imported == nil {
		return
	}
	m.imported.WithLabelValues(normalizeLabel(dataset)).Add(float64(n))
}

// AddSkipped adds rejected/skipped rows.
func (m *ImportMetrics) AddSkipped(dataset string, n int) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(dataset)).Add(float64(n))
}

// IncFailure counts an aborted import.
func (m *ImportMetrics) IncFailure(dataset string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(dataset)).Inc()
}

func normalizeLabel(dataset string) string {
	if dataset == "" {
		return "unknown"
	}
	return dataset
}
