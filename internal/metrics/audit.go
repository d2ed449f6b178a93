package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks periodic reconciliation runs.
type AuditMetrics struct {
	runs       *prometheus.CounterVec
	mismatches prometheus.Gauge
	lastRun    prometheus.Gauge
}

// NewAuditMetrics registers the audit metrics. A nil registerer yields a no-op recorder.
func NewAuditMetrics(reg prometheus.Registerer) *AuditMetrics {
	if reg == nil {
		return &AuditMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_audit_runs_total",
		Help: "Reconciliation passes by outcome.",
	}, []string{"result"})
	mismatches := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_audit_mismatched_accounts",
		Help: "Accounts whose balances disagreed with the journal on the last pass.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_audit_last_run_timestamp_seconds",
		Help: "Unix time of the last completed reconciliation pass.",
	})
	reg.MustRegister(runs, mismatches, lastRun)
	return &AuditMetrics{runs: runs, mismatches: mismatches, lastRun: lastRun}
}

// ObserveRun records a finished pass. failed counts passes that could not
// list accounts at all.
func (m *AuditMetrics) ObserveRun(at time.Time, mismatched int, failed bool) {
	if m == nil || m.runs == nil {
		return
	}
	result := "ok"
	switch {
	case failed:
		result = "error"
	case mismatched > 0:
		result = "mismatch"
	}
	m.runs.WithLabelValues(result).Inc()
	if !failed {
		m.mismatches.Set(float64(mismatched))
	}
	m.lastRun.Set(float64(at.Unix()))
}
