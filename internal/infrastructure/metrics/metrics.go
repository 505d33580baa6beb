package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the workflow engine. All methods are
// safe on a nil receiver so tests and tools can run without a registry.
type Metrics struct {
	// Evaluator resolutions by category and outcome (cache_hit, specialized, fallback)
	EvaluatorResolutions *prometheus.CounterVec

	// Order stage transitions by target status
	StageTransitions *prometheus.CounterVec

	EvaluationScore *prometheus.HistogramVec

	MatchingScore prometheus.Histogram

	// Collaborator outcomes by collaborator and result (success, rejected, fault)
	CollaboratorOutcomes *prometheus.CounterVec

	OperationLatency *prometheus.HistogramVec

	RegistryDegraded prometheus.Gauge
}

// New registers all engine metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluatorResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_evaluator_resolutions_total",
			Help: "Evaluator registry resolutions by category and outcome",
		}, []string{"category", "outcome"}),

		StageTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_order_stage_transitions_total",
			Help: "Order stage transitions by target status",
		}, []string{"status"}),

		EvaluationScore: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visaflow_evaluation_score",
			Help:    "Distribution of eligibility scores by visa category",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"category"}),

		MatchingScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "visaflow_matching_score",
			Help:    "Distribution of representative matching scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		CollaboratorOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_collaborator_outcomes_total",
			Help: "Outcomes of calls to payment and document collaborators",
		}, []string{"collaborator", "result"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visaflow_operation_duration_seconds",
			Help:    "Duration of workflow operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		RegistryDegraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "visaflow_evaluator_registry_degraded",
			Help: "1 when the last registry health check failed",
		}),
	}
}

func (m *Metrics) IncrementResolution(category, outcome string) {
	if m != nil {
		m.EvaluatorResolutions.WithLabelValues(category, outcome).Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.StageTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveEvaluationScore(category string, score float64) {
	if m != nil {
		m.EvaluationScore.WithLabelValues(category).Observe(score)
	}
}

func (m *Metrics) ObserveMatchingScore(score float64) {
	if m != nil {
		m.MatchingScore.Observe(score)
	}
}

func (m *Metrics) IncrementCollaboratorOutcome(collaborator, result string) {
	if m != nil {
		m.CollaboratorOutcomes.WithLabelValues(collaborator, result).Inc()
	}
}

func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) SetRegistryDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.RegistryDegraded.Set(1)
		return
	}
	m.RegistryDegraded.Set(0)
}
