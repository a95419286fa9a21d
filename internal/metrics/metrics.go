package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for report generation.
type Metrics struct {
	// Generated reports by type and format
	Generated *prometheus.CounterVec

	// Failures by stage: "aggregate" or "encode"
	Failures *prometheus.CounterVec

	// End-to-end generation latency by report type
	Duration *prometheus.HistogramVec

	// Rows fed into the table builder by report type
	Rows *prometheus.HistogramVec
}

// New registers the report metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Generated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_reports_generated_total",
			Help: "Total generated reports by type and format",
		}, []string{"type", "format"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_report_failures_total",
			Help: "Total report generation failures by stage",
		}, []string{"stage"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_report_duration_seconds",
			Help:    "Duration of report generation including aggregation and encoding",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"type"}),

		Rows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_report_rows",
			Help:    "Number of registry entries aggregated per report",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"type"}),
	}
}

func (m *Metrics) IncGenerated(reportType, format string) {
	if m != nil {
		m.Generated.WithLabelValues(reportType, format).Inc()
	}
}

func (m *Metrics) IncFailure(stage string) {
	if m != nil {
		m.Failures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveDuration(reportType string, d time.Duration) {
	if m != nil {
		m.Duration.WithLabelValues(reportType).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRows(reportType string, n int) {
	if m != nil {
		m.Rows.WithLabelValues(reportType).Observe(float64(n))
	}
}
