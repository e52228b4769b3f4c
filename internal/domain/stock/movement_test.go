package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockMovement(t *testing.T) {
	p := seededPosition(t, "100", "10.00")
	sourceID := uuid.New()

	t.Run("inbound movement", func(t *testing.T) {
		m, err := NewStockMovement(p, MovementTypePurchaseReceipt, d("50"), d("16.00"), d("100"), SourceTypePurchase, sourceID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, m.PositionID)
		assert.Equal(t, p.TenantID, m.TenantID)
		assert.Equal(t, p.ProductID, m.ProductID)
		assert.Equal(t, p.WarehouseID, m.WarehouseID)
		assert.True(t, d("100").Equal(m.BalanceBefore))
		assert.True(t, d("150").Equal(m.BalanceAfter))
		assert.True(t, m.IsInbound())
		assert.True(t, d("800").Equal(m.TotalCost()))
	})

	t.Run("outbound movement", func(t *testing.T) {
		m, err := NewStockMovement(p, MovementTypeSaleDeduction, d("-40"), d("10.00"), d("100"), SourceTypeSale, sourceID)
		require.NoError(t, err)
		assert.True(t, d("60").Equal(m.BalanceAfter))
		assert.False(t, m.IsInbound())
		assert.True(t, d("400").Equal(m.TotalCost()))
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		_, err := NewStockMovement(p, MovementTypeReconciliation, decimal.Zero, d("10.00"), d("100"), SourceTypeAdjustment, sourceID)
		assert.Error(t, err)
	})

	t.Run("delta below balance rejected", func(t *testing.T) {
		_, err := NewStockMovement(p, MovementTypeSaleDeduction, d("-101"), d("10.00"), d("100"), SourceTypeSale, sourceID)
		assert.Error(t, err)
	})

	t.Run("unknown movement type rejected", func(t *testing.T) {
		_, err := NewStockMovement(p, MovementType("teleport"), d("1"), d("10.00"), d("100"), SourceTypePurchase, sourceID)
		assert.Error(t, err)
	})

	t.Run("note and operator attribution", func(t *testing.T) {
		operator := uuid.New()
		m, err := NewStockMovement(p, MovementTypeReconciliation, d("-5"), d("10.00"), d("100"), SourceTypeAdjustment, sourceID)
		require.NoError(t, err)
		m.WithNote("damaged units").WithOperator(operator)
		assert.Equal(t, "damaged units", m.Note)
		require.NotNil(t, m.OperatorID)
		assert.Equal(t, operator, *m.OperatorID)
	})
}
