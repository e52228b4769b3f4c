package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/shared"
	"gorm.io/gorm"
)

// GormIdempotencyRepository implements ledger.IdempotencyRepository using
// GORM. The unique index on (tenant, source type, source id) is what makes
// posting exactly-once: the second writer's insert fails and its whole
// transaction rolls back.
type GormIdempotencyRepository struct {
	db *gorm.DB
}

// NewGormIdempotencyRepository creates a new GormIdempotencyRepository
func NewGormIdempotencyRepository(db *gorm.DB) *GormIdempotencyRepository {
	return &GormIdempotencyRepository{db: db}
}

// Create stores the record; a duplicate key surfaces as a concurrency
// conflict so the unit of work retries and finds the winner's record
func (r *GormIdempotencyRepository) Create(ctx context.Context, record *ledger.IdempotencyRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// FindBySource returns the record for a business event
func (r *GormIdempotencyRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType ledger.SourceType, sourceID uuid.UUID) (*ledger.IdempotencyRecord, error) {
	var record ledger.IdempotencyRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

var _ ledger.IdempotencyRepository = (*GormIdempotencyRepository)(nil)
