package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"mcengine-currency-go/internal/store"
)

// LedgerMetrics records outcomes and latency of ledger operations.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lockWait   prometheus.Histogram
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by outcome.",
	}, []string{"operation", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds, lock wait included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_lock_wait_seconds",
		Help:    "Time spent waiting for account locks.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2, 5},
	})
	reg.MustRegister(operations, duration, lockWait)
	return &LedgerMetrics{
		operations: operations,
		duration:   duration,
		lockWait:   lockWait,
	}
}

// Observe records one finished operation. The result label is store.Kind(err).
func (m *LedgerMetrics) Observe(operation string, started time.Time, err error) {
	if m == nil || m.operations == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.operations.WithLabelValues(operation, store.Kind(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveLockWait records how long an operation waited for its locks.
func (m *LedgerMetrics) ObserveLockWait(wait time.Duration) {
	if m == nil || m.lockWait == nil {
		return
	}
	m.lockWait.Observe(wait.Seconds())
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
