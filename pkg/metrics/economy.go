package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement outcomes recorded by EconomyMetrics.
const (
	OutcomeSuccess      = "success"
	OutcomeBusinessRule = "business_rule"
	OutcomeValidation   = "validation"
	OutcomeError        = "error"
)

// EconomyMetrics tracks wallet movements and checkout settlements.
type EconomyMetrics struct {
	coins               *prometheus.CounterVec
	insufficientBalance prometheus.Counter
	duplicates          *prometheus.CounterVec
	settlements         *prometheus.CounterVec
	settlementDuration  prometheus.Histogram
	transitions         *prometheus.CounterVec
	reconcileMismatches prometheus.Gauge
}

// NewEconomyMetrics registers the wallet and settlement collectors. A nil
// registerer yields a no-op recorder.
func NewEconomyMetrics(reg prometheus.Registerer) *EconomyMetrics {
	if reg == nil {
		return &EconomyMetrics{}
	}
	m := &EconomyMetrics{
		coins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecocoins_moved_total",
			Help: "EcoCoins moved through the wallet ledger by entry type.",
		}, []string{"type"}),
		insufficientBalance: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecocoins_insufficient_balance_total",
			Help: "Debits rejected because the wallet balance was too low.",
		}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecocoins_duplicate_entries_total",
			Help: "Wallet mutations skipped because the ledger entry already existed.",
		}, []string{"type"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_settlements_total",
			Help: "Checkout settlements by outcome.",
		}, []string{"outcome"}),
		settlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_settlement_duration_seconds",
			Help:    "Duration of checkout settlements in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by target status.",
		}, []string{"status"}),
		reconcileMismatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_ledger_mismatches",
			Help: "Wallets whose balance disagreed with the ledger sum on the last reconcile run.",
		}),
	}
	reg.MustRegister(m.coins, m.insufficientBalance, m.duplicates, m.settlements, m.settlementDuration, m.transitions, m.reconcileMismatches)
	return m
}

func (m *EconomyMetrics) AddCoins(entryType string, amount int64) {
	if m == nil || m.coins == nil || amount <= 0 {
		return
	}
	m.coins.WithLabelValues(normalizeLabel(entryType)).Add(float64(amount))
}

func (m *EconomyMetrics) IncInsufficientBalance() {
	if m == nil || m.insufficientBalance == nil {
		return
	}
	m.insufficientBalance.Inc()
}

func (m *EconomyMetrics) IncDuplicate(entryType string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(entryType)).Inc()
}

// ObserveSettlement records one checkout attempt.
func (m *EconomyMetrics) ObserveSettlement(outcome string, duration time.Duration) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.settlementDuration.Observe(duration.Seconds())
}

func (m *EconomyMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *EconomyMetrics) SetReconcileMismatches(count int) {
	if m == nil || m.reconcileMismatches == nil {
		return
	}
	m.reconcileMismatches.Set(float64(count))
}
