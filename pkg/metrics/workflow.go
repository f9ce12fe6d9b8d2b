package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records onboarding decision outcomes and approval latency.
type WorkflowMetrics struct {
	decisions       *prometheus.CounterVec
	cascadeDuration prometheus.Histogram
	cascadeFailures prometheus.Counter
}

// NewWorkflowMetrics registers the onboarding workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_decisions_total",
		Help: "Admin decisions on onboarding applications.",
	}, []string{"application", "decision"})
	cascadeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "onboarding_cascade_duration_seconds",
		Help:    "Duration of the business approval cascade transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	cascadeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "onboarding_cascade_failures_total",
		Help: "Business approval cascades rolled back due to an error.",
	})
	reg.MustRegister(decisions, cascadeDuration, cascadeFailures)
	return &WorkflowMetrics{
		decisions:       decisions,
		cascadeDuration: cascadeDuration,
		cascadeFailures: cascadeFailures,
	}
}

// IncDecision counts a decision for the given application kind ("business" or "manager").
func (w *WorkflowMetrics) IncDecision(application, decision string) {
	if w == nil || w.decisions == nil {
		return
	}
	w.decisions.WithLabelValues(normalizeLabel(application), normalizeLabel(decision)).Inc()
}

// ObserveCascade records how long an approval cascade took.
func (w *WorkflowMetrics) ObserveCascade(duration time.Duration) {
	if w == nil || w.cascadeDuration == nil {
		return
	}
	w.cascadeDuration.Observe(duration.Seconds())
}

// IncCascadeFailure counts a rolled-back approval cascade.
func (w *WorkflowMetrics) IncCascadeFailure() {
	if w == nil || w.cascadeFailures == nil {
		return
	}
	w.cascadeFailures.Inc()
}
