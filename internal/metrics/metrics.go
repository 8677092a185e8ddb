// Package metrics exposes Prometheus instrumentation for the betting
// core and a lightweight sidecar server for /metrics and /healthz.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsPlaced counts accepted wagers, labelled simple/combo.
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eazybet_bets_placed_total",
		Help: "Number of wagers accepted.",
	}, []string{"kind"})

	// BetsRejected counts rejected placements by reason.
	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eazybet_bets_rejected_total",
		Help: "Number of wager placements rejected.",
	}, []string{"reason"})

	// BetsSettled counts graded wagers by kind and outcome.
	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eazybet_bets_settled_total",
		Help: "Number of wagers graded by settlement.",
	}, []string{"kind", "outcome"})

	// SettlementFailures counts per-wager grading failures.
	SettlementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eazybet_settlement_failures_total",
		Help: "Number of wagers whose grading failed and needs a retry.",
	})

	// CompensationFailures counts failed ledger rollbacks. Any value
	// above zero means money was created or destroyed without a record
	// and needs manual reconciliation.
	CompensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eazybet_compensation_failures_total",
		Help: "Number of failed ledger compensations (fatal inconsistencies).",
	})

	// Conversions counts token-to-diamond exchanges.
	Conversions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eazybet_conversions_total",
		Help: "Number of token-to-diamond conversions.",
	})
)
