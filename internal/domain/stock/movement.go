package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType classifies a physical stock movement
type MovementType string

const (
	MovementTypePurchaseReceipt MovementType = "purchase_receipt"
	MovementTypeSaleDeduction   MovementType = "sale_deduction"
	MovementTypeTransferOut     MovementType = "transfer_out"
	MovementTypeTransferIn      MovementType = "transfer_in"
	MovementTypeAdjustment      MovementType = "adjustment"
	MovementTypeReconciliation  MovementType = "reconciliation"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchaseReceipt,
		MovementTypeSaleDeduction,
		MovementTypeTransferOut,
		MovementTypeTransferIn,
		MovementTypeAdjustment,
		MovementTypeReconciliation:
		return true
	}
	return false
}

// SourceType identifies the business document that caused a movement
// or posting
type SourceType string

const (
	SourceTypePurchase   SourceType = "purchase"
	SourceTypeSale       SourceType = "sale"
	SourceTypeTransfer   SourceType = "transfer"
	SourceTypeAdjustment SourceType = "adjustment"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypePurchase, SourceTypeSale, SourceTypeTransfer, SourceTypeAdjustment:
		return true
	}
	return false
}

// StockMovement is an immutable record of a physical stock change. It is
// the audit trail and reconciliation basis: movements are appended exactly
// once per coordinated unit of work and never updated or deleted -
// corrections append offsetting movements.
type StockMovement struct {
	shared.BaseEntity
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_tenant_time,priority:1"`
	PositionID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_position"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_product"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_warehouse"`
	MovementType  MovementType    `gorm:"type:varchar(30);not null;index:idx_stock_movement_type"`
	QuantityDelta decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Signed: positive inbound, negative outbound
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Weighted-average cost at movement time
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand quantity before the movement
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand quantity after the movement
	SourceType    SourceType      `gorm:"type:varchar(30);not null;index:idx_stock_movement_source,priority:1"`
	SourceID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_source,priority:2"`
	Note          string          `gorm:"type:varchar(255)"`
	OperatorID    *uuid.UUID      `gorm:"type:uuid"`
	OccurredAt    time.Time       `gorm:"type:timestamptz;not null;index:idx_stock_movement_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates an immutable movement record
func NewStockMovement(
	p *StockPosition,
	movementType MovementType,
	quantityDelta decimal.Decimal,
	unitCost decimal.Decimal,
	balanceBefore decimal.Decimal,
	sourceType SourceType,
	sourceID uuid.UUID,
) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantityDelta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity delta cannot be zero")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}
	if balanceBefore.IsNegative() || balanceBefore.Add(quantityDelta).IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Movement balance cannot be negative")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      p.TenantID,
		PositionID:    p.ID,
		ProductID:     p.ProductID,
		WarehouseID:   p.WarehouseID,
		MovementType:  movementType,
		QuantityDelta: quantityDelta,
		UnitCost:      unitCost,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore.Add(quantityDelta),
		SourceType:    sourceType,
		SourceID:      sourceID,
		OccurredAt:    time.Now(),
	}, nil
}

// WithNote attaches a free-form note to the movement
func (m *StockMovement) WithNote(note string) *StockMovement {
	m.Note = note
	return m
}

// WithOperator attaches the acting user to the movement
func (m *StockMovement) WithOperator(operatorID uuid.UUID) *StockMovement {
	m.OperatorID = &operatorID
	return m
}

// IsInbound returns true if the movement increased on-hand quantity
func (m *StockMovement) IsInbound() bool {
	return m.QuantityDelta.IsPositive()
}

// TotalCost returns the absolute movement value (|delta| * unit cost)
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.QuantityDelta.Abs().Mul(m.UnitCost)
}
