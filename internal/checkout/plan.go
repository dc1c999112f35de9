package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/ecomarket/ecocoins-backend/internal/products"
	"github.com/ecomarket/ecocoins-backend/pkg/money"
)

// PricedLine is a requested line joined with its catalog policy.
type PricedLine struct {
	Policy product.PricePolicy
	Qty    int
}

// PlannedLine is the settlement of one line. Money values are rounded to
// two places. LineMoney is rounded from the unrounded catalog price, so it
// can differ from UnitPrice*Qty by a cent.
type PlannedLine struct {
	ProductID     uuid.UUID
	SKU           string
	Name          string
	Qty           int
	UnitPrice     decimal.Decimal
	LineMoney     decimal.Decimal
	EcoCoinsSpent int64
	MoneyDiscount decimal.Decimal
	MoneyToPay    decimal.Decimal
}

// Plan is the full settlement. Totals are sums of the rounded line values.
type Plan struct {
	Lines              []PlannedLine
	TotalMoney         decimal.Decimal
	TotalEcoCoinsSpent int64
	TotalMoneyDiscount decimal.Decimal
	TotalMoneyToPay    decimal.Decimal
}

// BuildPlan allocates coins greedily in request order. Each line takes as
// many whole coins as its cap allows while budget remains, so earlier lines
// can starve later ones.
func BuildPlan(lines []PricedLine, budget int64, rate money.Rate) Plan {
	if budget < 0 {
		budget = 0
	}
	plan := Plan{Lines: make([]PlannedLine, 0, len(lines))}
	lineMoneys := make([]decimal.Decimal, 0, len(lines))
	discounts := make([]decimal.Decimal, 0, len(lines))
	toPays := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		policy := line.Policy
		// Cap and line money come from the unrounded catalog price. UnitPrice is
		// only the rounded snapshot.
		itemMoney := policy.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty)))
		unit := money.Round2(policy.UnitPrice)
		lineMoney := money.Round2(itemMoney)

		var coins int64
		if policy.EcoCoinsEnabled && budget > 0 {
			capacity := rate.MaxCoinsFor(itemMoney.Mul(policy.MaxEcoCoinsDiscountPercent))
			coins = min(budget, capacity)
		}
		discount := rate.CoinsToMoney(coins)
		toPay := lineMoney.Sub(discount)
		budget -= coins

		plan.Lines = append(plan.Lines, PlannedLine{
			ProductID:     policy.ProductID,
			SKU:           policy.SKU,
			Name:          policy.Name,
			Qty:           line.Qty,
			UnitPrice:     unit,
			LineMoney:     lineMoney,
			EcoCoinsSpent: coins,
			MoneyDiscount: discount,
			MoneyToPay:    toPay,
		})
		lineMoneys = append(lineMoneys, lineMoney)
		discounts = append(discounts, discount)
		toPays = append(toPays, toPay)
		plan.TotalEcoCoinsSpent += coins
	}
	plan.TotalMoney = money.Sum(lineMoneys...)
	plan.TotalMoneyDiscount = money.Sum(discounts...)
	plan.TotalMoneyToPay = money.Sum(toPays...)
	return plan
}
