package posting

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory backing store implementing TransactionScope
// with real atomicity: Execute serializes units of work and rolls the
// whole store back when the unit fails.
type memStore struct {
	mu        sync.Mutex
	positions map[string]stock.StockPosition
	movements []stock.StockMovement
	entries   []ledger.LedgerEntry
	idem      map[string]ledger.IdempotencyRecord
}

func newMemStore() *memStore {
	return &memStore{
		positions: make(map[string]stock.StockPosition),
		idem:      make(map[string]ledger.IdempotencyRecord),
	}
}

func scopeKey(tenantID, productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", tenantID, productID, warehouseID)
}

func idemKey(tenantID uuid.UUID, sourceType ledger.SourceType, sourceID uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", tenantID, sourceType, sourceID)
}

func (s *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapPositions := make(map[string]stock.StockPosition, len(s.positions))
	for k, v := range s.positions {
		snapPositions[k] = v
	}
	snapMovements := append([]stock.StockMovement(nil), s.movements...)
	snapEntries := append([]ledger.LedgerEntry(nil), s.entries...)
	snapIdem := make(map[string]ledger.IdempotencyRecord, len(s.idem))
	for k, v := range s.idem {
		snapIdem[k] = v
	}

	if err := fn(s); err != nil {
		s.positions = snapPositions
		s.movements = snapMovements
		s.entries = snapEntries
		s.idem = snapIdem
		return err
	}
	return nil
}

func (s *memStore) Positions() stock.PositionRepository      { return &memPositionRepo{s} }
func (s *memStore) Movements() stock.MovementRepository      { return &memMovementRepo{s} }
func (s *memStore) Entries() ledger.EntryRepository          { return &memEntryRepo{s} }
func (s *memStore) Idempotency() ledger.IdempotencyRepository { return &memIdemRepo{s} }

var _ TransactionScope = (*memStore)(nil)
var _ TransactionalRepositories = (*memStore)(nil)

type memPositionRepo struct{ s *memStore }

func (r *memPositionRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*stock.StockPosition, error) {
	for _, p := range r.s.positions {
		if p.TenantID == tenantID && p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPositionRepo) FindByScope(_ context.Context, tenantID, productID, warehouseID uuid.UUID) (*stock.StockPosition, error) {
	p, ok := r.s.positions[scopeKey(tenantID, productID, warehouseID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *memPositionRepo) GetOrCreate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*stock.StockPosition, error) {
	if p, err := r.FindByScope(ctx, tenantID, productID, warehouseID); err == nil {
		return p, nil
	}
	fresh, err := stock.NewStockPosition(tenantID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	r.s.positions[scopeKey(tenantID, productID, warehouseID)] = *fresh
	cp := *fresh
	return &cp, nil
}

func (r *memPositionRepo) SaveWithLock(_ context.Context, position *stock.StockPosition) error {
	key := scopeKey(position.TenantID, position.ProductID, position.WarehouseID)
	stored, ok := r.s.positions[key]
	if !ok || stored.Version != position.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.s.positions[key] = *position
	return nil
}

func (r *memPositionRepo) ListByWarehouse(_ context.Context, tenantID, warehouseID uuid.UUID) ([]stock.StockPosition, error) {
	var out []stock.StockPosition
	for _, p := range r.s.positions {
		if p.TenantID == tenantID && p.WarehouseID == warehouseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPositionRepo) ListByProduct(_ context.Context, tenantID, productID uuid.UUID) ([]stock.StockPosition, error) {
	var out []stock.StockPosition
	for _, p := range r.s.positions {
		if p.TenantID == tenantID && p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPositionRepo) SumQuantityByProduct(_ context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.s.positions {
		if p.TenantID == tenantID && p.ProductID == productID {
			total = total.Add(p.Quantity)
		}
	}
	return total, nil
}

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Append(_ context.Context, movement *stock.StockMovement) error {
	r.s.movements = append(r.s.movements, *movement)
	return nil
}

func (r *memMovementRepo) ListByPosition(_ context.Context, tenantID, positionID uuid.UUID, limit int) ([]stock.StockMovement, error) {
	var out []stock.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.TenantID == tenantID && m.PositionID == positionID {
			out = append(out, m)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListBySource(_ context.Context, tenantID uuid.UUID, sourceType stock.SourceType, sourceID uuid.UUID) ([]stock.StockMovement, error) {
	var out []stock.StockMovement
	for _, m := range r.s.movements {
		if m.TenantID == tenantID && m.SourceType == sourceType && m.SourceID == sourceID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memEntryRepo struct{ s *memStore }

func (r *memEntryRepo) AppendSet(_ context.Context, entries ledger.EntrySet) error {
	r.s.entries = append(r.s.entries, entries...)
	return nil
}

func (r *memEntryRepo) FindByReference(_ context.Context, tenantID, reference uuid.UUID) (ledger.EntrySet, error) {
	var out ledger.EntrySet
	for _, e := range r.s.entries {
		if e.TenantID == tenantID && e.Reference == reference {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) FindBySource(_ context.Context, tenantID uuid.UUID, sourceType ledger.SourceType, sourceID uuid.UUID) (ledger.EntrySet, error) {
	var out ledger.EntrySet
	for _, e := range r.s.entries {
		if e.TenantID == tenantID && e.SourceType == sourceType && e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) SumByAccount(_ context.Context, tenantID uuid.UUID) ([]ledger.AccountTotals, error) {
	byAccount := make(map[uuid.UUID]*ledger.AccountTotals)
	for _, e := range r.s.entries {
		if e.TenantID != tenantID {
			continue
		}
		totals, ok := byAccount[e.AccountID]
		if !ok {
			totals = &ledger.AccountTotals{AccountID: e.AccountID}
			byAccount[e.AccountID] = totals
		}
		totals.TotalDebit = totals.TotalDebit.Add(e.Debit)
		totals.TotalCredit = totals.TotalCredit.Add(e.Credit)
	}
	out := make([]ledger.AccountTotals, 0, len(byAccount))
	for _, totals := range byAccount {
		out = append(out, *totals)
	}
	return out, nil
}

type memIdemRepo struct{ s *memStore }

func (r *memIdemRepo) Create(_ context.Context, record *ledger.IdempotencyRecord) error {
	key := idemKey(record.TenantID, record.SourceType, record.SourceID)
	if _, exists := r.s.idem[key]; exists {
		return shared.ErrConcurrencyConflict
	}
	r.s.idem[key] = *record
	return nil
}

func (r *memIdemRepo) FindBySource(_ context.Context, tenantID uuid.UUID, sourceType ledger.SourceType, sourceID uuid.UUID) (*ledger.IdempotencyRecord, error) {
	record, ok := r.s.idem[idemKey(tenantID, sourceType, sourceID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := record
	return &cp, nil
}

// staticAccounts resolves roles from a fixed map
type staticAccounts struct {
	byRole map[ledger.AccountRole]uuid.UUID
}

func newStaticAccounts() *staticAccounts {
	return &staticAccounts{byRole: map[ledger.AccountRole]uuid.UUID{
		ledger.RoleInventory:      uuid.New(),
		ledger.RoleCOGS:           uuid.New(),
		ledger.RolePayable:        uuid.New(),
		ledger.RoleSalesRevenue:   uuid.New(),
		ledger.RoleCash:           uuid.New(),
		ledger.RoleAdjustmentGain: uuid.New(),
		ledger.RoleAdjustmentLoss: uuid.New(),
	}}
}

func (a *staticAccounts) Resolve(_ context.Context, _ uuid.UUID, role ledger.AccountRole) (uuid.UUID, error) {
	id, ok := a.byRole[role]
	if !ok {
		return uuid.Nil, shared.ErrAccountNotFound
	}
	return id, nil
}

// fixedCatalog returns one fallback cost for every product
type fixedCatalog struct {
	cost decimal.Decimal
}

func (c *fixedCatalog) FallbackPurchaseCost(context.Context, uuid.UUID, uuid.UUID) (decimal.Decimal, error) {
	return c.cost, nil
}

// capturingSink records emitted audit facts
type capturingSink struct {
	mu    sync.Mutex
	facts []AuditFact
}

func (s *capturingSink) Emit(_ context.Context, fact AuditFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = append(s.facts, fact)
	return nil
}

// capturingPublisher records published domain events
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// flakyScope injects conflicts before delegating to the real scope
type flakyScope struct {
	inner     TransactionScope
	conflicts int
}

func (s *flakyScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	if s.conflicts > 0 {
		s.conflicts--
		return shared.ErrConcurrencyConflict
	}
	return s.inner.Execute(ctx, fn)
}
