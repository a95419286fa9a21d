package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncGenerated("SUMMARY", "CSV")
	m.IncGenerated("SUMMARY", "CSV")
	m.IncFailure("encode")
	m.ObserveDuration("SUMMARY", 20*time.Millisecond)
	m.ObserveRows("SUMMARY", 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Generated.WithLabelValues("SUMMARY", "CSV")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("encode")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncGenerated("DETAILED", "PDF")
		m.IncFailure("aggregate")
		m.ObserveDuration("DETAILED", time.Second)
		m.ObserveRows("DETAILED", 1)
	})
}
