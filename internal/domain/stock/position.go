package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StockPosition is the aggregate root for per-warehouse stock state.
// The composite business identifier is (TenantID, ProductID, WarehouseID).
// Positions are created lazily on first movement and never deleted, only
// zeroed. All mutation goes through the methods below; repositories persist
// changes with a compare-and-swap on Version.
type StockPosition struct {
	shared.TenantAggregateRoot
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_position_scope,priority:2"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_position_scope,priority:3"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // On-hand quantity, never negative
	Reserved       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Reserved for pending orders
	AvgUnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Moving weighted-average cost
	LastMovementAt *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockPosition) TableName() string {
	return "stock_positions"
}

// NewStockPosition creates an empty position for a product-warehouse pair
func NewStockPosition(tenantID, productID, warehouseID uuid.UUID) (*StockPosition, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	return &StockPosition{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		WarehouseID:         warehouseID,
		Quantity:            decimal.Zero,
		Reserved:            decimal.Zero,
		AvgUnitCost:         decimal.Zero,
	}, nil
}

// Available returns the quantity not held by reservations
func (p *StockPosition) Available() decimal.Decimal {
	return p.Quantity.Sub(p.Reserved)
}

// TotalValue returns the on-hand quantity valued at the average cost
func (p *StockPosition) TotalValue() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Quantity.Mul(p.AvgUnitCost))
}

// CanFulfill returns true if the available quantity covers the request
func (p *StockPosition) CanFulfill(qty decimal.Decimal) bool {
	return p.Available().GreaterThanOrEqual(qty)
}

// Reserve holds qty units for a pending order. Fails without side effect
// when the available quantity does not cover the request.
func (p *StockPosition) Reserve(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if p.Available().LessThan(qty) {
		return shared.ErrInsufficientStock
	}

	p.Reserved = p.Reserved.Add(qty)
	p.touch()

	p.AddDomainEvent(NewStockReservedEvent(p, qty))
	return nil
}

// Release returns qty units from the reservation back to available stock.
// Releasing more than is reserved clamps at zero rather than failing, so
// commerce flows are never blocked by reservation bookkeeping drift.
func (p *StockPosition) Release(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}

	released := qty
	if released.GreaterThan(p.Reserved) {
		released = p.Reserved
	}
	p.Reserved = p.Reserved.Sub(released)
	p.touch()

	p.AddDomainEvent(NewStockReleasedEvent(p, released))
	return nil
}

// Deduct removes qty units of on-hand stock (sale shipment, transfer out).
// The weighted-average cost is deliberately untouched: outbound movements
// consume quantity at the recorded pre-movement cost.
func (p *StockPosition) Deduct(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduct quantity must be positive")
	}
	if p.Quantity.LessThan(qty) {
		return shared.ErrInsufficientStock
	}

	p.Quantity = p.Quantity.Sub(qty)
	if p.Reserved.GreaterThan(p.Quantity) {
		p.Reserved = p.Quantity
	}
	p.touch()

	p.AddDomainEvent(NewStockDeductedEvent(p, qty))
	return nil
}

// AddInbound receives qty units at unitCost and recomputes the
// weighted-average cost through the costing engine.
func (p *StockPosition) AddInbound(qty, unitCost decimal.Decimal, costing CostingEngine) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Inbound quantity must be positive")
	}

	newCost, err := costing.ApplyInbound(p.Quantity, p.AvgUnitCost, qty, unitCost)
	if err != nil {
		return err
	}

	oldCost := p.AvgUnitCost
	p.Quantity = p.Quantity.Add(qty)
	p.AvgUnitCost = newCost
	p.touch()

	p.AddDomainEvent(NewStockIncreasedEvent(p, qty, unitCost))
	if !oldCost.Equal(newCost) {
		p.AddDomainEvent(NewCostChangedEvent(p, oldCost, newCost))
	}
	return nil
}

// AdjustTo sets the on-hand quantity to the physically counted value.
// The average cost is unchanged: surplus discovered during a count carries
// no cost information, so it is valued at the current average. Returns the
// signed quantity variance (counted minus recorded).
func (p *StockPosition) AdjustTo(newQty decimal.Decimal, note string) (decimal.Decimal, error) {
	if newQty.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	if note == "" {
		return decimal.Zero, shared.NewDomainError("INVALID_NOTE", "Adjustment note is required")
	}
	if newQty.LessThan(p.Reserved) {
		return decimal.Zero, shared.NewDomainError("RESERVED_EXCEEDS_COUNT", "Counted quantity is below the reserved quantity")
	}

	variance := newQty.Sub(p.Quantity)
	oldQty := p.Quantity
	p.Quantity = newQty
	p.touch()

	p.AddDomainEvent(NewStockAdjustedEvent(p, oldQty, newQty, note))
	return variance, nil
}

func (p *StockPosition) touch() {
	now := time.Now()
	p.LastMovementAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
}
