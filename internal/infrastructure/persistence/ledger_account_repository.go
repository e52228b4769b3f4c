package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindActiveByRole returns the active account holding the given role
func (r *GormAccountRepository) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role ledger.AccountRole) (*ledger.ChartAccount, error) {
	var account ledger.ChartAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ? AND active = ?", tenantID, role, true).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByID finds an account by ID within a tenant
func (r *GormAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ChartAccount, error) {
	var account ledger.ChartAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Save persists an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.ChartAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
