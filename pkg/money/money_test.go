package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRound2HalfUp(t *testing.T) {
	cases := map[string]string{
		"3.335":  "3.34",
		"3.334":  "3.33",
		"10.005": "10.01",
		"0.125":  "0.13",
		"19":     "19",
	}
	for in, want := range cases {
		assert.True(t, Round2(dec(in)).Equal(dec(want)), "%s -> %s, got %s", in, want, Round2(dec(in)))
	}
}

func TestRateConversions(t *testing.T) {
	rate := MustRate(DefaultCoinValueUSD)

	assert.True(t, rate.CoinsToMoney(100).Equal(dec("1.00")))
	assert.True(t, rate.CoinsToMoney(0).IsZero())

	assert.EqualValues(t, 1000, rate.MaxCoinsFor(dec("10.00")))
	assert.EqualValues(t, 500, rate.MaxCoinsFor(dec("5.0025")), "remainder must be floored")
	assert.EqualValues(t, 0, rate.MaxCoinsFor(dec("0.009")))
	assert.EqualValues(t, 0, rate.MaxCoinsFor(dec("-4")))
}

func TestNewRateRejectsInvalid(t *testing.T) {
	_, err := NewRate("abc")
	require.Error(t, err)
	_, err = NewRate("0")
	require.Error(t, err)
	_, err = NewRate("-0.01")
	require.Error(t, err)

	r, err := NewRate("0.05")
	require.NoError(t, err)
	assert.True(t, r.PerCoin().Equal(dec("0.05")))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum(dec("1.10"), dec("2.20"), dec("0.70")).Equal(dec("4")))
	assert.True(t, Sum().IsZero())
}
