package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormEntryRepository implements ledger.EntryRepository using GORM.
// Entries are append-only.
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// AppendSet stores a balanced entry set in one batch
func (r *GormEntryRepository) AppendSet(ctx context.Context, entries ledger.EntrySet) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// FindByReference returns the entry set posted under a reference
func (r *GormEntryRepository) FindByReference(ctx context.Context, tenantID, reference uuid.UUID) (ledger.EntrySet, error) {
	var entries ledger.EntrySet
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		Order("created_at, id").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindBySource returns the entries posted for one business document
func (r *GormEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType ledger.SourceType, sourceID uuid.UUID) (ledger.EntrySet, error) {
	var entries ledger.EntrySet
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("created_at, id").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumByAccount returns per-account debit/credit totals for the tenant
func (r *GormEntryRepository) SumByAccount(ctx context.Context, tenantID uuid.UUID) ([]ledger.AccountTotals, error) {
	var totals []ledger.AccountTotals
	if err := r.db.WithContext(ctx).
		Model(&ledger.LedgerEntry{}).
		Select("account_id, SUM(debit) AS total_debit, SUM(credit) AS total_credit").
		Where("tenant_id = ?", tenantID).
		Group("account_id").
		Order("account_id").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

var _ ledger.EntryRepository = (*GormEntryRepository)(nil)
