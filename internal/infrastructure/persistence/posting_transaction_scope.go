package persistence

import (
	"context"

	appposting "github.com/merx/erp/internal/application/posting"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/stock"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM
// transactions. It provides atomic execution of multiple repository
// operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction. If the
// function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appposting.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories
// scoped to the current transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Positions() stock.PositionRepository {
	return NewGormPositionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Movements() stock.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Entries() ledger.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Idempotency() ledger.IdempotencyRepository {
	return NewGormIdempotencyRepository(r.tx)
}

var _ appposting.TransactionScope = (*GormTransactionScope)(nil)
var _ appposting.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
