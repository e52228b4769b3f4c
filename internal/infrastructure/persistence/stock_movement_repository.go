package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/stock"
	"gorm.io/gorm"
)

// GormMovementRepository implements stock.MovementRepository using GORM.
// Movements are append-only: there is no update or delete path.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append stores a new movement
func (r *GormMovementRepository) Append(ctx context.Context, movement *stock.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListByPosition lists a position's movements, newest first
func (r *GormMovementRepository) ListByPosition(ctx context.Context, tenantID, positionID uuid.UUID, limit int) ([]stock.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND position_id = ?", tenantID, positionID).
		Order("occurred_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var movements []stock.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// ListBySource lists the movements generated by one business document
func (r *GormMovementRepository) ListBySource(ctx context.Context, tenantID uuid.UUID, sourceType stock.SourceType, sourceID uuid.UUID) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("occurred_at, id").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

var _ stock.MovementRepository = (*GormMovementRepository)(nil)
