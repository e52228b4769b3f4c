package posting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ProductCatalog is the read-only catalog collaborator, consulted for a
// fallback purchase cost when a receipt omits the unit cost.
type ProductCatalog interface {
	// FallbackPurchaseCost returns the product's reference purchase cost
	FallbackPurchaseCost(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error)
}

// PurchaseReceiptRequest records goods received against a purchase order
type PurchaseReceiptRequest struct {
	PurchaseID  uuid.UUID
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	// UnitCost may be nil, in which case the catalog fallback cost is used
	UnitCost   *decimal.Decimal
	OperatorID *uuid.UUID
}

// SaleLineItem is one shipped line of a completed sale
type SaleLineItem struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	SaleAmount  decimal.Decimal
}

// SaleCompletionRequest records a completed sale with one or more lines
type SaleCompletionRequest struct {
	SaleID     uuid.UUID
	Lines      []SaleLineItem
	OperatorID *uuid.UUID
}

// TransferRequest moves stock between two warehouses
type TransferRequest struct {
	TransferID      uuid.UUID
	ProductID       uuid.UUID
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Quantity        decimal.Decimal
	OperatorID      *uuid.UUID
}

// AdjustmentRequest reconciles recorded stock to a counted quantity
type AdjustmentRequest struct {
	ReferenceID uuid.UUID
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	CountedQty  decimal.Decimal
	Note        string
	OperatorID  *uuid.UUID
}

// StockPositionResponse is the read model of one stock position
type StockPositionResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	WarehouseID    uuid.UUID       `json:"warehouse_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reserved       decimal.Decimal `json:"reserved"`
	Available      decimal.Decimal `json:"available"`
	AvgUnitCost    decimal.Decimal `json:"avg_unit_cost"`
	Version        int             `json:"version"`
	LastMovementAt *time.Time      `json:"last_movement_at,omitempty"`
}

// ToStockPositionResponse maps a position aggregate to its read model
func ToStockPositionResponse(p *stock.StockPosition) StockPositionResponse {
	return StockPositionResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		ProductID:      p.ProductID,
		WarehouseID:    p.WarehouseID,
		Quantity:       p.Quantity,
		Reserved:       p.Reserved,
		Available:      p.Available(),
		AvgUnitCost:    p.AvgUnitCost,
		Version:        p.GetVersion(),
		LastMovementAt: p.LastMovementAt,
	}
}

// PurchaseReceiptResult is returned by RecordPurchaseReceipt
type PurchaseReceiptResult struct {
	Position  StockPositionResponse `json:"position"`
	Reference uuid.UUID             `json:"reference"`
	// Duplicate is true when the receipt had already been posted and the
	// stored result was returned unchanged
	Duplicate bool `json:"duplicate"`
}

// PostingResult is returned by the remaining posting operations
type PostingResult struct {
	Reference uuid.UUID `json:"reference"`
	Duplicate bool      `json:"duplicate"`
}
