package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPositionRepository implements stock.PositionRepository using GORM
type GormPositionRepository struct {
	db *gorm.DB
}

// NewGormPositionRepository creates a new GormPositionRepository
func NewGormPositionRepository(db *gorm.DB) *GormPositionRepository {
	return &GormPositionRepository{db: db}
}

// FindByID finds a position by its ID within a tenant
func (r *GormPositionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.StockPosition, error) {
	var position stock.StockPosition
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &position, nil
}

// FindByScope finds the position for a (product, warehouse) pair
func (r *GormPositionRepository) FindByScope(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*stock.StockPosition, error) {
	var position stock.StockPosition
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ?", tenantID, productID, warehouseID).
		First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &position, nil
}

// GetOrCreate returns the position for a (product, warehouse) pair,
// creating an empty one when none exists yet. A concurrent insert of the
// same pair surfaces as a concurrency conflict so the unit of work
// retries and finds the winner's row.
func (r *GormPositionRepository) GetOrCreate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*stock.StockPosition, error) {
	position, err := r.FindByScope(ctx, tenantID, productID, warehouseID)
	if err == nil {
		return position, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	fresh, err := stock.NewStockPosition(tenantID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, err
	}
	return fresh, nil
}

// SaveWithLock persists the position with a compare-and-swap on its
// version column
func (r *GormPositionRepository) SaveWithLock(ctx context.Context, position *stock.StockPosition) error {
	result := r.db.WithContext(ctx).
		Model(position).
		Where("id = ? AND version = ?", position.ID, position.Version-1).
		Updates(map[string]interface{}{
			"quantity":         position.Quantity,
			"reserved":         position.Reserved,
			"avg_unit_cost":    position.AvgUnitCost,
			"last_movement_at": position.LastMovementAt,
			"version":          position.Version,
			"updated_at":       position.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ListByWarehouse lists positions held in a warehouse
func (r *GormPositionRepository) ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]stock.StockPosition, error) {
	var positions []stock.StockPosition
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID).
		Order("product_id").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// ListByProduct lists a product's positions across all warehouses
func (r *GormPositionRepository) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]stock.StockPosition, error) {
	var positions []stock.StockPosition
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("warehouse_id").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// SumQuantityByProduct sums the on-hand quantity of a product across all
// warehouses
func (r *GormPositionRepository) SumQuantityByProduct(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&stock.StockPosition{}).
		Select("SUM(quantity)").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

var _ stock.PositionRepository = (*GormPositionRepository)(nil)
