package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncrementResolution("E-1", "fallback")
		m.IncrementTransition("MATCHING")
		m.ObserveEvaluationScore("E-1", 70)
		m.ObserveMatchingScore(80)
		m.IncrementCollaboratorOutcome("payment", "success")
		m.ObserveOperation("start_evaluation", time.Millisecond)
		m.SetRegistryDegraded(true)
	})
}

func TestMetrics_CountersAndGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementResolution("E-1", "cache_hit")
	m.IncrementResolution("E-1", "cache_hit")
	m.IncrementTransition("PAYMENT_PENDING")
	m.SetRegistryDegraded(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EvaluatorResolutions.WithLabelValues("E-1", "cache_hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageTransitions.WithLabelValues("PAYMENT_PENDING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryDegraded))

	m.SetRegistryDegraded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RegistryDegraded))
}
