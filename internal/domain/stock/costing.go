package stock

import (
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CostingEngine computes moving weighted-average unit costs. It is a
// pure calculator: no side effects, no I/O.
type CostingEngine struct {
	precision int32
}

// NewCostingEngine creates a costing engine that rounds to the given
// currency's minor unit.
func NewCostingEngine(currency valueobject.Currency) CostingEngine {
	return CostingEngine{precision: currency.MinorUnits()}
}

// ApplyInbound returns the new weighted-average unit cost after receiving
// incomingQty units at incomingUnitCost on top of oldQty units carried at
// oldCost:
//
//	newCost = (oldQty*oldCost + incomingQty*incomingUnitCost) / (oldQty + incomingQty)
//
// Rounding (round-half-even at the currency minor unit) is applied once at
// the end, never per intermediate step. When the combined quantity is zero
// the incoming unit cost is returned as-is to avoid a divide by zero.
func (e CostingEngine) ApplyInbound(oldQty, oldCost, incomingQty, incomingUnitCost decimal.Decimal) (decimal.Decimal, error) {
	if incomingQty.IsNegative() || incomingUnitCost.IsNegative() {
		return decimal.Zero, shared.ErrInvalidCostingInput
	}
	if oldQty.IsNegative() || oldCost.IsNegative() {
		return decimal.Zero, shared.ErrInvalidCostingInput
	}

	totalQty := oldQty.Add(incomingQty)
	if totalQty.IsZero() {
		return incomingUnitCost.RoundBank(e.precision), nil
	}

	totalValue := oldQty.Mul(oldCost).Add(incomingQty.Mul(incomingUnitCost))
	return totalValue.Div(totalQty).RoundBank(e.precision), nil
}
