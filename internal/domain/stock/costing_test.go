package stock

import (
	"testing"

	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCostingEngine_ApplyInbound(t *testing.T) {
	engine := NewCostingEngine(valueobject.USD)

	t.Run("weighted average of two receipts", func(t *testing.T) {
		// 100 units at 10.00 plus 50 units at 16.00 -> 12.00
		cost, err := engine.ApplyInbound(d("100"), d("10.00"), d("50"), d("16.00"))
		require.NoError(t, err)
		assert.True(t, d("12.00").Equal(cost), "got %s", cost)
	})

	t.Run("first receipt into empty position", func(t *testing.T) {
		cost, err := engine.ApplyInbound(decimal.Zero, decimal.Zero, d("10"), d("7.25"))
		require.NoError(t, err)
		assert.True(t, d("7.25").Equal(cost))
	})

	t.Run("zero total quantity returns incoming cost", func(t *testing.T) {
		cost, err := engine.ApplyInbound(decimal.Zero, decimal.Zero, decimal.Zero, d("9.99"))
		require.NoError(t, err)
		assert.True(t, d("9.99").Equal(cost))
	})

	t.Run("zero-cost receipt dilutes the average", func(t *testing.T) {
		cost, err := engine.ApplyInbound(d("10"), d("10.00"), d("10"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, d("5.00").Equal(cost))
	})

	t.Run("rounds half to even at minor unit", func(t *testing.T) {
		// (1*0.01 + 1*0.02) / 2 = 0.015 -> banker's rounding -> 0.02
		cost, err := engine.ApplyInbound(d("1"), d("0.01"), d("1"), d("0.02"))
		require.NoError(t, err)
		assert.True(t, d("0.02").Equal(cost), "got %s", cost)

		// (1*0.02 + 1*0.03) / 2 = 0.025 -> banker's rounding -> 0.02
		cost, err = engine.ApplyInbound(d("1"), d("0.02"), d("1"), d("0.03"))
		require.NoError(t, err)
		assert.True(t, d("0.02").Equal(cost), "got %s", cost)
	})

	t.Run("rounding applied once at the end", func(t *testing.T) {
		// (3*0.10 + 3*0.05) / 6 = 0.075 exactly; per-step rounding would
		// not land on 0.08.
		cost, err := engine.ApplyInbound(d("3"), d("0.10"), d("3"), d("0.05"))
		require.NoError(t, err)
		assert.True(t, d("0.08").Equal(cost), "got %s", cost)
	})

	t.Run("negative inputs rejected", func(t *testing.T) {
		_, err := engine.ApplyInbound(d("-1"), d("10"), d("5"), d("10"))
		assert.ErrorIs(t, err, shared.ErrInvalidCostingInput)

		_, err = engine.ApplyInbound(d("1"), d("10"), d("5"), d("-10"))
		assert.ErrorIs(t, err, shared.ErrInvalidCostingInput)
	})
}

func TestCostingEngine_JPYPrecision(t *testing.T) {
	engine := NewCostingEngine(valueobject.JPY)

	// JPY has no minor unit: averages round to whole units
	cost, err := engine.ApplyInbound(d("3"), d("100"), d("1"), d("101"))
	require.NoError(t, err)
	assert.True(t, d("100").Equal(cost), "got %s", cost)
}
