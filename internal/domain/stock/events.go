package stock

import (
	"github.com/merx/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types emitted by the StockPosition aggregate
const (
	EventTypeStockIncreased = "stock.increased"
	EventTypeStockDeducted  = "stock.deducted"
	EventTypeStockReserved  = "stock.reserved"
	EventTypeStockReleased  = "stock.released"
	EventTypeStockAdjusted  = "stock.adjusted"
	EventTypeCostChanged    = "stock.cost_changed"
)

const aggregateTypeStockPosition = "StockPosition"

// StockIncreasedEvent is emitted when inbound stock is received
type StockIncreasedEvent struct {
	shared.BaseDomainEvent
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	NewAvgCost  decimal.Decimal `json:"new_avg_cost"`
}

// NewStockIncreasedEvent creates a StockIncreasedEvent
func NewStockIncreasedEvent(p *StockPosition, qty, unitCost decimal.Decimal) *StockIncreasedEvent {
	return &StockIncreasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockIncreased, aggregateTypeStockPosition, p.ID, p.TenantID),
		Quantity:        qty,
		UnitCost:        unitCost,
		NewQuantity:     p.Quantity,
		NewAvgCost:      p.AvgUnitCost,
	}
}

// StockDeductedEvent is emitted when on-hand stock is consumed
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	Quantity    decimal.Decimal `json:"quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
}

// NewStockDeductedEvent creates a StockDeductedEvent
func NewStockDeductedEvent(p *StockPosition, qty decimal.Decimal) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, aggregateTypeStockPosition, p.ID, p.TenantID),
		Quantity:        qty,
		NewQuantity:     p.Quantity,
	}
}

// StockReservedEvent is emitted when stock is reserved for a pending order
type StockReservedEvent struct {
	shared.BaseDomainEvent
	Quantity    decimal.Decimal `json:"quantity"`
	NewReserved decimal.Decimal `json:"new_reserved"`
}

// NewStockReservedEvent creates a StockReservedEvent
func NewStockReservedEvent(p *StockPosition, qty decimal.Decimal) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, aggregateTypeStockPosition, p.ID, p.TenantID),
		Quantity:        qty,
		NewReserved:     p.Reserved,
	}
}

// StockReleasedEvent is emitted when a reservation is released
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	Quantity    decimal.Decimal `json:"quantity"`
	NewReserved decimal.Decimal `json:"new_reserved"`
}

// NewStockReleasedEvent creates a StockReleasedEvent
func NewStockReleasedEvent(p *StockPosition, qty decimal.Decimal) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReleased, aggregateTypeStockPosition, p.ID, p.TenantID),
		Quantity:        qty,
		NewReserved:     p.Reserved,
	}
}

// StockAdjustedEvent is emitted when stock is set to a counted quantity
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Note        string          `json:"note"`
}

// NewStockAdjustedEvent creates a StockAdjustedEvent
func NewStockAdjustedEvent(p *StockPosition, oldQty, newQty decimal.Decimal, note string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, aggregateTypeStockPosition, p.ID, p.TenantID),
		OldQuantity:     oldQty,
		NewQuantity:     newQty,
		Note:            note,
	}
}

// CostChangedEvent is emitted when an inbound movement changes the
// weighted-average cost
type CostChangedEvent struct {
	shared.BaseDomainEvent
	OldCost decimal.Decimal `json:"old_cost"`
	NewCost decimal.Decimal `json:"new_cost"`
}

// NewCostChangedEvent creates a CostChangedEvent
func NewCostChangedEvent(p *StockPosition, oldCost, newCost decimal.Decimal) *CostChangedEvent {
	return &CostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostChanged, aggregateTypeStockPosition, p.ID, p.TenantID),
		OldCost:         oldCost,
		NewCost:         newCost,
	}
}
