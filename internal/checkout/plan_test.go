package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/ecomarket/ecocoins-backend/internal/products"
	"github.com/ecomarket/ecocoins-backend/pkg/money"
)

var rate = money.MustRate(money.DefaultCoinValueUSD)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func policy(price, maxPct string, enabled bool) product.PricePolicy {
	return product.PricePolicy{
		ProductID:                  uuid.New(),
		SKU:                        "SKU",
		Name:                       "item",
		UnitPrice:                  dec(price),
		IsActive:                   true,
		Stock:                      100,
		EcoCoinsEnabled:            enabled,
		MaxEcoCoinsDiscountPercent: dec(maxPct),
	}
}

func TestBuildPlanGreedyInRequestOrder(t *testing.T) {
	// caps: 0.16*0.5/0.01 = 8 and 0.08*0.5/0.01 = 4
	a := policy("0.16", "0.5", true)
	b := policy("0.08", "0.5", true)

	plan := BuildPlan([]PricedLine{{Policy: a, Qty: 1}, {Policy: a, Qty: 1}}, 10, rate)
	require.Len(t, plan.Lines, 2)
	assert.EqualValues(t, 8, plan.Lines[0].EcoCoinsSpent)
	assert.EqualValues(t, 2, plan.Lines[1].EcoCoinsSpent)
	assert.EqualValues(t, 10, plan.TotalEcoCoinsSpent)

	forward := BuildPlan([]PricedLine{{Policy: a, Qty: 1}, {Policy: b, Qty: 1}}, 10, rate)
	assert.EqualValues(t, 8, forward.Lines[0].EcoCoinsSpent)
	assert.EqualValues(t, 2, forward.Lines[1].EcoCoinsSpent)

	reversed := BuildPlan([]PricedLine{{Policy: b, Qty: 1}, {Policy: a, Qty: 1}}, 10, rate)
	assert.EqualValues(t, 4, reversed.Lines[0].EcoCoinsSpent)
	assert.EqualValues(t, 6, reversed.Lines[1].EcoCoinsSpent)
}

func TestBuildPlanPricesFromUnroundedUnitPrice(t *testing.T) {
	plan := BuildPlan([]PricedLine{{Policy: policy("3.335", "0.5", false), Qty: 3}}, 0, rate)
	require.Len(t, plan.Lines, 1)
	line := plan.Lines[0]
	assert.True(t, line.UnitPrice.Equal(dec("3.34")), line.UnitPrice.String())
	assert.True(t, line.LineMoney.Equal(dec("10.01")), line.LineMoney.String())
	assert.True(t, plan.TotalMoney.Equal(dec("10.01")))
	assert.True(t, plan.TotalMoneyToPay.Equal(dec("10.01")))
	assert.Zero(t, plan.TotalEcoCoinsSpent)

	plan = BuildPlan([]PricedLine{{Policy: policy("3.335", "0.5", false), Qty: 100}}, 0, rate)
	assert.True(t, plan.Lines[0].LineMoney.Equal(dec("333.50")), plan.Lines[0].LineMoney.String())
}

func TestBuildPlanCapUsesUnroundedItemMoney(t *testing.T) {
	plan := BuildPlan([]PricedLine{{Policy: policy("0.015", "0.5", true), Qty: 100}}, 1000, rate)
	require.Len(t, plan.Lines, 1)
	line := plan.Lines[0]
	assert.EqualValues(t, 75, line.EcoCoinsSpent)
	assert.True(t, line.LineMoney.Equal(dec("1.50")), line.LineMoney.String())
	assert.True(t, line.MoneyDiscount.Equal(dec("0.75")))
	assert.True(t, line.MoneyToPay.Equal(dec("0.75")))
}

func TestBuildPlanHonoursPolicyAndBudget(t *testing.T) {
	disabled := policy("20", "0.5", true)
	disabled.EcoCoinsEnabled = false
	zeroCap := policy("20", "0", true)
	open := policy("20", "0.5", true)

	plan := BuildPlan([]PricedLine{
		{Policy: disabled, Qty: 1},
		{Policy: zeroCap, Qty: 1},
		{Policy: open, Qty: 1},
	}, 100, rate)

	assert.Zero(t, plan.Lines[0].EcoCoinsSpent)
	assert.Zero(t, plan.Lines[1].EcoCoinsSpent)
	assert.EqualValues(t, 100, plan.Lines[2].EcoCoinsSpent)
	assert.True(t, plan.Lines[2].MoneyDiscount.Equal(dec("1.00")))
	assert.True(t, plan.Lines[2].MoneyToPay.Equal(dec("19.00")))
	assert.True(t, plan.TotalMoney.Equal(dec("60")))
	assert.True(t, plan.TotalMoneyToPay.Equal(dec("59")))
}

func TestBuildPlanFloorsFractionalCoins(t *testing.T) {
	// 0.99 * 0.33 = 0.3267 -> 32 whole coins
	plan := BuildPlan([]PricedLine{{Policy: policy("0.99", "0.33", true), Qty: 1}}, 1000, rate)
	assert.EqualValues(t, 32, plan.Lines[0].EcoCoinsSpent)
	assert.True(t, plan.Lines[0].MoneyDiscount.Equal(dec("0.32")))
	assert.True(t, plan.Lines[0].MoneyToPay.Equal(dec("0.67")))
}

func TestBuildPlanTotalsMatchLineSums(t *testing.T) {
	lines := []PricedLine{
		{Policy: policy("1.005", "0.25", true), Qty: 7},
		{Policy: policy("12.49", "0.1", true), Qty: 2},
		{Policy: policy("0.01", "1", true), Qty: 1},
	}
	plan := BuildPlan(lines, 57, rate)

	sumMoney, sumDiscount, sumToPay := decimal.Zero, decimal.Zero, decimal.Zero
	var coins int64
	for _, l := range plan.Lines {
		sumMoney = sumMoney.Add(l.LineMoney)
		sumDiscount = sumDiscount.Add(l.MoneyDiscount)
		sumToPay = sumToPay.Add(l.MoneyToPay)
		coins += l.EcoCoinsSpent
		assert.True(t, l.MoneyToPay.Equal(l.LineMoney.Sub(l.MoneyDiscount)))
		assert.False(t, l.MoneyToPay.IsNegative())
	}
	assert.True(t, plan.TotalMoney.Equal(sumMoney))
	assert.True(t, plan.TotalMoneyDiscount.Equal(sumDiscount))
	assert.True(t, plan.TotalMoneyToPay.Equal(sumToPay))
	assert.Equal(t, plan.TotalEcoCoinsSpent, coins)
	assert.LessOrEqual(t, coins, int64(57))
}
