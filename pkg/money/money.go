// Package money holds the decimal helpers shared by pricing and settlement.
// All amounts are USD with two decimal places.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept on every persisted amount.
const Places = 2

// DefaultCoinValueUSD is the value of one EcoCoin in USD.
const DefaultCoinValueUSD = "0.01"

// Round2 rounds half away from zero to two places, which is half-up for the
// non-negative amounts handled here.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Sum adds values without intermediate rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Rate converts between EcoCoins and money.
type Rate struct {
	perCoin decimal.Decimal
}

// NewRate parses the USD value of one coin. The value must be positive.
func NewRate(perCoin string) (Rate, error) {
	d, err := decimal.NewFromString(perCoin)
	if err != nil {
		return Rate{}, fmt.Errorf("parse coin value %q: %w", perCoin, err)
	}
	if !d.IsPositive() {
		return Rate{}, fmt.Errorf("coin value must be positive, got %s", d)
	}
	return Rate{perCoin: d}, nil
}

// MustRate is NewRate for constants known at compile time.
func MustRate(perCoin string) Rate {
	r, err := NewRate(perCoin)
	if err != nil {
		panic(err)
	}
	return r
}

// PerCoin returns the USD value of one coin.
func (r Rate) PerCoin() decimal.Decimal {
	return r.perCoin
}

// CoinsToMoney returns the money value of coins, rounded to two places.
func (r Rate) CoinsToMoney(coins int64) decimal.Decimal {
	return Round2(r.perCoin.Mul(decimal.NewFromInt(coins)))
}

// MaxCoinsFor returns how many whole coins fit inside amount, flooring any
// remainder. Non-positive amounts yield zero.
func (r Rate) MaxCoinsFor(amount decimal.Decimal) int64 {
	if !amount.IsPositive() || r.perCoin.IsZero() {
		return 0
	}
	return amount.Div(r.perCoin).Floor().IntPart()
}
