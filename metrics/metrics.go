// Package metrics exposes Prometheus instruments for ledger actions and
// reconciliation runs. Every recorder is nil-safe so callers can run without
// a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cardledger"

// =============================================================================
// ACTIONS
// =============================================================================

// ActionMetrics records one sample per unit-of-work. It satisfies
// ledger.ActionObserver.
type ActionMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewActionMetrics registers the action metrics on the provided registerer.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	if reg == nil {
		return &ActionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "action_duration_seconds",
		Help:      "Duration of ledger units of work in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Ledger units of work by outcome.",
	}, []string{"action", "outcome"})
	reg.MustRegister(duration, total)
	return &ActionMetrics{
		duration: duration,
		total:    total,
	}
}

// ObserveAction records the outcome ("ok" or an error kind) and duration.
func (m *ActionMetrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	action = normalizeLabel(action)
	m.duration.WithLabelValues(action).Observe(elapsed.Seconds())
	m.total.WithLabelValues(action, normalizeLabel(outcome)).Inc()
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileMetrics tracks reconciliation runs and their findings.
type ReconcileMetrics struct {
	runs          *prometheus.CounterVec
	discrepancies prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliation_runs_total",
		Help:      "Reconciliation runs by source and result.",
	}, []string{"source", "result"})
	discrepancies := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconciliation_discrepancies",
		Help:      "Discrepancies found by the most recent reconciliation run.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconciliation_last_run_timestamp_seconds",
		Help:      "Unix time of the most recent reconciliation run.",
	})
	reg.MustRegister(runs, discrepancies, lastRun)
	return &ReconcileMetrics{
		runs:          runs,
		discrepancies: discrepancies,
		lastRun:       lastRun,
	}
}

// ObserveRun records a completed run. failed marks a run that could not
// finish; its discrepancy count is not published.
func (m *ReconcileMetrics) ObserveRun(source string, at time.Time, discrepancies int, failed bool) {
	if m == nil || m.runs == nil {
		return
	}
	result := "clean"
	switch {
	case failed:
		result = "error"
	case discrepancies > 0:
		result = "discrepancies"
	}
	m.runs.WithLabelValues(normalizeLabel(source), result).Inc()
	m.lastRun.Set(float64(at.Unix()))
	if !failed {
		m.discrepancies.Set(float64(discrepancies))
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
