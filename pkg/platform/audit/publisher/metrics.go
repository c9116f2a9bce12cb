package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit publishing.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures prometheus.Counter
	Dropped         prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance with audit publisher metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_audit_events_emitted_total",
			Help: "Total number of audit events successfully persisted",
		}, []string{"category"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "conforma_audit_persist_failures_total",
			Help: "Total number of audit event persistence failures",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "conforma_audit_events_dropped_total",
			Help: "Total number of best-effort audit events dropped under buffer pressure",
		}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "conforma_audit_persist_duration_seconds",
			Help:    "Time taken to persist an audit event",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncEventsEmitted increments the emitted counter for a category.
func (m *Metrics) IncEventsEmitted(category string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(category).Inc()
}

// IncPersistFailures increments the persist failures counter.
func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// IncDropped increments the dropped events counter.
func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}

// ObservePersistDuration records how long a store write took.
func (m *Metrics) ObservePersistDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(seconds)
}
