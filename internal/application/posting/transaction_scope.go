package posting

import (
	"context"

	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories a
// posting unit of work touches. Everything executed within one scope is
// committed or rolled back atomically: stock mutation, movement append,
// ledger entries and the idempotency record are never visible partially.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Positions returns the stock position repository scoped to the
	// current transaction
	Positions() stock.PositionRepository
	// Movements returns the stock movement repository scoped to the
	// current transaction
	Movements() stock.MovementRepository
	// Entries returns the ledger entry repository scoped to the current
	// transaction
	Entries() ledger.EntryRepository
	// Idempotency returns the posting idempotency repository scoped to
	// the current transaction
	Idempotency() ledger.IdempotencyRepository
}
