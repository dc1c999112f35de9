package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEconomyMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEconomyMetrics(reg)

	m.AddCoins("EARN", 100)
	m.AddCoins("EARN", 50)
	m.AddCoins("SPEND", 0)
	m.IncInsufficientBalance()
	m.IncDuplicate("SPEND")
	m.ObserveSettlement(OutcomeSuccess, 10*time.Millisecond)
	m.ObserveSettlement(OutcomeBusinessRule, 5*time.Millisecond)
	m.IncTransition("CONFIRMED")
	m.SetReconcileMismatches(3)

	assert.Equal(t, float64(150), testutil.ToFloat64(m.coins.WithLabelValues("EARN")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.coins.WithLabelValues("SPEND")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.insufficientBalance))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.duplicates.WithLabelValues("SPEND")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.settlements.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.settlements.WithLabelValues(OutcomeBusinessRule)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("CONFIRMED")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.reconcileMismatches))
}

func TestEconomyMetricsNilSafe(t *testing.T) {
	var nilMetrics *EconomyMetrics
	assert.NotPanics(t, func() {
		nilMetrics.AddCoins("EARN", 1)
		nilMetrics.ObserveSettlement(OutcomeError, time.Second)
		nilMetrics.SetReconcileMismatches(1)
	})

	noop := NewEconomyMetrics(nil)
	assert.NotPanics(t, func() {
		noop.AddCoins("EARN", 1)
		noop.IncInsufficientBalance()
		noop.IncDuplicate("EARN")
		noop.ObserveSettlement(OutcomeSuccess, time.Second)
		noop.IncTransition("CANCELLED")
	})
}
