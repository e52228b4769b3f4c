package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appposting "github.com/merx/erp/internal/application/posting"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/shared/valueobject"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostingTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedPosition(t *testing.T, repo *GormPositionRepository, tenantID uuid.UUID, qty, cost string) *stock.StockPosition {
	t.Helper()
	ctx := context.Background()
	position, err := repo.GetOrCreate(ctx, tenantID, uuid.New(), uuid.New())
	require.NoError(t, err)
	costing := stock.NewCostingEngine(valueobject.USD)
	require.NoError(t, position.AddInbound(dec(qty), dec(cost), costing))
	require.NoError(t, repo.SaveWithLock(ctx, position))
	position.ClearDomainEvents()
	return position
}

func TestGormPositionRepository_GetOrCreate(t *testing.T) {
	db := setupPostingTestDB(t)
	repo := NewGormPositionRepository(db.DB)
	ctx := context.Background()
	tenantID, productID, warehouseID := uuid.New(), uuid.New(), uuid.New()

	created, err := repo.GetOrCreate(ctx, tenantID, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, created.Quantity.IsZero())
	assert.Equal(t, 1, created.GetVersion())

	again, err := repo.GetOrCreate(ctx, tenantID, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// a different tenant never sees the row
	_, err = repo.FindByScope(ctx, uuid.New(), productID, warehouseID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormPositionRepository_SaveWithLock(t *testing.T) {
	db := setupPostingTestDB(t)
	repo := NewGormPositionRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	position := seedPosition(t, repo, tenantID, "100", "10")

	reloaded, err := repo.FindByScope(ctx, tenantID, position.ProductID, position.WarehouseID)
	require.NoError(t, err)
	assert.True(t, reloaded.Quantity.Equal(dec("100")))
	assert.True(t, reloaded.AvgUnitCost.Equal(dec("10")))
	assert.Equal(t, 2, reloaded.GetVersion())
	assert.NotNil(t, reloaded.LastMovementAt)

	require.NoError(t, reloaded.Deduct(dec("30")))
	require.NoError(t, repo.SaveWithLock(ctx, reloaded))

	final, err := repo.FindByID(ctx, tenantID, position.ID)
	require.NoError(t, err)
	assert.True(t, final.Quantity.Equal(dec("70")))
	assert.Equal(t, 3, final.GetVersion())
}

func TestGormPositionRepository_SaveWithLock_Conflict(t *testing.T) {
	db := setupPostingTestDB(t)
	repo := NewGormPositionRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	position := seedPosition(t, repo, tenantID, "100", "10")

	first, err := repo.FindByID(ctx, tenantID, position.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tenantID, position.ID)
	require.NoError(t, err)

	require.NoError(t, first.Deduct(dec("10")))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	// the second reader mutated stale state and must lose
	require.NoError(t, second.Deduct(dec("10")))
	err = repo.SaveWithLock(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

	final, err := repo.FindByID(ctx, tenantID, position.ID)
	require.NoError(t, err)
	assert.True(t, final.Quantity.Equal(dec("90")), "the losing write must not land")
}

func TestGormPositionRepository_SumQuantityByProduct(t *testing.T) {
	db := setupPostingTestDB(t)
	repo := NewGormPositionRepository(db.DB)
	ctx := context.Background()
	tenantID, productID := uuid.New(), uuid.New()
	costing := stock.NewCostingEngine(valueobject.USD)

	total, err := repo.SumQuantityByProduct(ctx, tenantID, productID)
	require.NoError(t, err)
	assert.True(t, total.IsZero(), "no rows sums to zero")

	for _, qty := range []string{"100", "25"} {
		position, err := repo.GetOrCreate(ctx, tenantID, productID, uuid.New())
		require.NoError(t, err)
		require.NoError(t, position.AddInbound(dec(qty), dec("10"), costing))
		require.NoError(t, repo.SaveWithLock(ctx, position))
	}

	total, err = repo.SumQuantityByProduct(ctx, tenantID, productID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("125")))
}

func TestGormMovementRepository_ListByPosition(t *testing.T) {
	db := setupPostingTestDB(t)
	positions := NewGormPositionRepository(db.DB)
	movements := NewGormMovementRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()
	costing := stock.NewCostingEngine(valueobject.USD)

	position, err := positions.GetOrCreate(ctx, tenantID, uuid.New(), uuid.New())
	require.NoError(t, err)

	balance := decimal.Zero
	for i := 0; i < 3; i++ {
		require.NoError(t, position.AddInbound(dec("10"), dec("5"), costing))
		movement, err := stock.NewStockMovement(position, stock.MovementTypePurchaseReceipt,
			dec("10"), dec("5"), balance, stock.SourceTypePurchase, uuid.New())
		require.NoError(t, err)
		require.NoError(t, movements.Append(ctx, movement))
		balance = balance.Add(dec("10"))
	}

	listed, err := movements.ListByPosition(ctx, tenantID, position.ID, 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].BalanceAfter.Equal(dec("30")), "newest movement first")

	all, err := movements.ListByPosition(ctx, tenantID, position.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGormEntryRepository_SumByAccount(t *testing.T) {
	db := setupPostingTestDB(t)
	entries := NewGormEntryRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()
	inventoryID, payableID := uuid.New(), uuid.New()
	reference := uuid.New()

	sourceID := uuid.New()
	debit, err := ledger.NewDebit(tenantID, reference, inventoryID, dec("1000.00"), "Goods received", ledger.SourceTypePurchase, sourceID)
	require.NoError(t, err)
	credit, err := ledger.NewCredit(tenantID, reference, payableID, dec("1000.00"), "Goods received", ledger.SourceTypePurchase, sourceID)
	require.NoError(t, err)
	require.NoError(t, entries.AppendSet(ctx, ledger.EntrySet{debit, credit}))

	byRef, err := entries.FindByReference(ctx, tenantID, reference)
	require.NoError(t, err)
	require.Len(t, byRef, 2)
	assert.True(t, byRef.IsBalanced())

	totals, err := entries.SumByAccount(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	for _, acct := range totals {
		switch acct.AccountID {
		case inventoryID:
			assert.True(t, acct.TotalDebit.Equal(dec("1000.00")))
			assert.True(t, acct.TotalCredit.IsZero())
		case payableID:
			assert.True(t, acct.TotalDebit.IsZero())
			assert.True(t, acct.TotalCredit.Equal(dec("1000.00")))
		default:
			t.Fatalf("unexpected account %s", acct.AccountID)
		}
	}
}

func TestGormIdempotencyRepository_DuplicateKey(t *testing.T) {
	db := setupPostingTestDB(t)
	repo := NewGormIdempotencyRepository(db.DB)
	ctx := context.Background()
	tenantID, sourceID := uuid.New(), uuid.New()

	record, err := ledger.NewIdempotencyRecord(tenantID, ledger.SourceTypeSale, sourceID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, record))

	duplicate, err := ledger.NewIdempotencyRecord(tenantID, ledger.SourceTypeSale, sourceID, uuid.New())
	require.NoError(t, err)
	err = repo.Create(ctx, duplicate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

	stored, err := repo.FindBySource(ctx, tenantID, ledger.SourceTypeSale, sourceID)
	require.NoError(t, err)
	assert.Equal(t, record.Reference, stored.Reference)

	_, err = repo.FindBySource(ctx, tenantID, ledger.SourceTypeTransfer, sourceID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormAccountRepository_FindActiveByRole(t *testing.T) {
	db := setupPostingTestDB(t)
	repo := NewGormAccountRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	account, err := ledger.NewChartAccount(tenantID, "1400", "Inventory", ledger.RoleInventory)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, account))

	found, err := repo.FindActiveByRole(ctx, tenantID, ledger.RoleInventory)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = repo.FindActiveByRole(ctx, tenantID, ledger.RoleCOGS)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupPostingTestDB(t)
	scope := NewGormTransactionScope(db.DB)
	ctx := context.Background()
	tenantID, productID, warehouseID := uuid.New(), uuid.New(), uuid.New()
	costing := stock.NewCostingEngine(valueobject.USD)
	boom := errors.New("boom")

	err := scope.Execute(ctx, func(repos appposting.TransactionalRepositories) error {
		position, err := repos.Positions().GetOrCreate(ctx, tenantID, productID, warehouseID)
		if err != nil {
			return err
		}
		if err := position.AddInbound(dec("10"), dec("5"), costing); err != nil {
			return err
		}
		if err := repos.Positions().SaveWithLock(ctx, position); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	positions := NewGormPositionRepository(db.DB)
	_, err = positions.FindByScope(ctx, tenantID, productID, warehouseID)
	assert.True(t, errors.Is(err, shared.ErrNotFound), "the aborted unit leaves no row behind")
}

func TestGormTransactionScope_CommitsOnSuccess(t *testing.T) {
	db := setupPostingTestDB(t)
	scope := NewGormTransactionScope(db.DB)
	ctx := context.Background()
	tenantID, productID, warehouseID := uuid.New(), uuid.New(), uuid.New()
	costing := stock.NewCostingEngine(valueobject.USD)

	err := scope.Execute(ctx, func(repos appposting.TransactionalRepositories) error {
		position, err := repos.Positions().GetOrCreate(ctx, tenantID, productID, warehouseID)
		if err != nil {
			return err
		}
		if err := position.AddInbound(dec("10"), dec("5"), costing); err != nil {
			return err
		}
		return repos.Positions().SaveWithLock(ctx, position)
	})
	require.NoError(t, err)

	positions := NewGormPositionRepository(db.DB)
	stored, err := positions.FindByScope(ctx, tenantID, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, stored.Quantity.Equal(dec("10")))
}
