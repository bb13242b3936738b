package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("ledger_integrity").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("ledger_integrity").End(boom), boom)

	require.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("ledger_integrity", "success")))
	require.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("ledger_integrity", "failure")))
	require.Equal(t, 1.0, counterValue(t, m.failures.WithLabelValues("ledger_integrity")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("x").End(nil))
	m.AddViolations("unbalanced_posting", 3)
}

func TestAddViolations(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddViolations("unbalanced_posting", 2)
	m.AddViolations("unbalanced_posting", 0)
	require.Equal(t, 2.0, counterValue(t, m.violations.WithLabelValues("unbalanced_posting")))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
