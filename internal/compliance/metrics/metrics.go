package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	// Per-engine reconciliation latencies
	EngineLatency *prometheus.HistogramVec

	// Run verdicts by outcome and family
	RunOutcome *prometheus.CounterVec

	// Findings produced, by kind and section
	Findings *prometheus.CounterVec

	// Overall evaluation latency
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all compliance module metrics registered.
func New() *Metrics {
	return &Metrics{
		EngineLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conforma_compliance_engine_duration_seconds",
			Help:    "Duration of reconciliation engine passes by engine",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"engine"}), // engine: "structure", "documents", "parameters", "schedule", "ini"

		RunOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_compliance_runs_total",
			Help: "Total validation runs by outcome and product family",
		}, []string{"outcome", "family"}),

		Findings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_compliance_findings_total",
			Help: "Total findings produced by kind and section",
		}, []string{"kind", "section"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "conforma_compliance_evaluate_duration_seconds",
			Help:    "Duration of a full evaluation including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveEngineLatency records the duration of one engine pass.
func (m *Metrics) ObserveEngineLatency(engine string, d time.Duration) {
	if m != nil {
		m.EngineLatency.WithLabelValues(engine).Observe(d.Seconds())
	}
}

// IncrementRun records a run verdict.
func (m *Metrics) IncrementRun(outcome, family string) {
	if m != nil {
		m.RunOutcome.WithLabelValues(outcome, family).Inc()
	}
}

// IncrementFinding records one produced finding.
func (m *Metrics) IncrementFinding(kind, section string) {
	if m != nil {
		m.Findings.WithLabelValues(kind, section).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
