package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionRepository persists StockPosition aggregates
type PositionRepository interface {
	// FindByID finds a position by its surrogate ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockPosition, error)
	// FindByScope finds the position for a (product, warehouse) pair
	FindByScope(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*StockPosition, error)
	// GetOrCreate returns the position for a (product, warehouse) pair,
	// creating an empty one on first movement
	GetOrCreate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*StockPosition, error)
	// SaveWithLock persists the position with a compare-and-swap on its
	// version; a lost race returns shared.ErrConcurrencyConflict
	SaveWithLock(ctx context.Context, position *StockPosition) error
	// ListByWarehouse lists positions held in a warehouse
	ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]StockPosition, error)
	// ListByProduct lists positions of a product across warehouses
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]StockPosition, error)
	// SumQuantityByProduct sums the on-hand quantity of a product across
	// all warehouses
	SumQuantityByProduct(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error)
}

// MovementRepository appends immutable stock movements. There are
// deliberately no update or delete operations: the physical audit trail
// stays immutable for reconciliation.
type MovementRepository interface {
	// Append stores a movement record
	Append(ctx context.Context, movement *StockMovement) error
	// ListByPosition lists movements of one position, newest first
	ListByPosition(ctx context.Context, tenantID, positionID uuid.UUID, limit int) ([]StockMovement, error)
	// ListBySource lists the movements generated by one business document
	ListBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) ([]StockMovement, error)
}
