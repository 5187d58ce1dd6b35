package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeOK labels a successful operation. Failures are labelled with their
// error kind.
const OutcomeOK = "ok"

// OperationMetrics records latency, outcome and retries of ledger operations.
type OperationMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewOperationMetrics registers the operation metrics on the provided
// registerer. A nil registerer yields a recorder that drops everything.
func NewOperationMetrics(reg prometheus.Registerer) *OperationMetrics {
	if reg == nil {
		return &OperationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger operations in seconds, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "operation_total",
		Help:      "Ledger operations by final outcome.",
	}, []string{"operation", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "operation_retries_total",
		Help:      "Retries of ledger operations after transient storage failures.",
	}, []string{"operation"})
	reg.MustRegister(duration, outcomes, retries)
	return &OperationMetrics{
		duration: duration,
		outcomes: outcomes,
		retries:  retries,
	}
}

// Observe records one finished operation.
func (m *OperationMetrics) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.outcomes.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

// IncRetry counts one retry of the named operation.
func (m *OperationMetrics) IncRetry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
