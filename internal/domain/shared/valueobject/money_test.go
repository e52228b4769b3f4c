package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCurrencyMinorUnits(t *testing.T) {
	assert.Equal(t, int32(2), USD.MinorUnits())
	assert.Equal(t, int32(2), EUR.MinorUnits())
	assert.Equal(t, int32(0), JPY.MinorUnits())
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(amt("10.50"), USD)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(amt("10.50")))
	assert.Equal(t, USD, m.Currency())

	_, err = NewMoney(amt("1"), "")
	assert.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyUSD(amt("10.00"))
	b := NewMoneyUSD(amt("2.50"))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(amt("12.50")))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(amt("7.50")))

	product := b.Multiply(amt("4"))
	assert.True(t, product.Amount().Equal(amt("10.00")))

	assert.True(t, a.Negate().Amount().Equal(amt("-10.00")))
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd := NewMoneyUSD(amt("10"))
	eur, err := NewMoney(amt("10"), EUR)
	require.NoError(t, err)

	_, err = usd.Add(eur)
	assert.Error(t, err)
	_, err = usd.Subtract(eur)
	assert.Error(t, err)
}

func TestMoneyRoundMinorUnit(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency Currency
		want     string
	}{
		{"half up to even", "0.015", USD, "0.02"},
		{"half down to even", "0.025", USD, "0.02"},
		{"plain round", "10.004", USD, "10"},
		{"yen has no minor unit", "100.5", JPY, "100"},
		{"yen rounds half to even", "101.5", JPY, "102"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(amt(tt.amount), tt.currency)
			require.NoError(t, err)
			rounded := m.RoundMinorUnit()
			assert.True(t, rounded.Amount().Equal(amt(tt.want)),
				"got %s want %s", rounded.Amount(), tt.want)
		})
	}
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, Zero(USD).IsZero())
	assert.True(t, NewMoneyUSD(amt("1")).IsPositive())
	assert.True(t, NewMoneyUSD(amt("-1")).IsNegative())
	assert.True(t, NewMoneyUSD(amt("5")).Equals(NewMoneyUSD(amt("5.0"))))
	assert.False(t, NewMoneyUSD(amt("5")).Equals(Zero(USD)))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "10.50 USD", NewMoneyUSD(amt("10.5")).String())

	jpy, err := NewMoney(amt("1500"), JPY)
	require.NoError(t, err)
	assert.Equal(t, "1500 JPY", jpy.String())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	original := NewMoneyUSD(amt("123.45"))
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("42.50"))
	assert.True(t, m.Amount().Equal(amt("42.50")))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
