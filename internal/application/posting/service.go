package posting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries bounds how often a unit of work is retried after
	// losing a concurrency race before the conflict is surfaced.
	DefaultMaxRetries = 3
)

// PostingService is the transaction coordinator: it wraps stock mutation,
// movement recording, ledger posting and the idempotency record in one
// atomic unit per business event. Each unit re-reads its rows on entry, so
// a retry after a lost compare-and-swap always works from fresh state, and
// the cost used for COGS is always the one captured in the same read that
// deducted the quantity.
type PostingService struct {
	scope      TransactionScope
	positions  stock.PositionRepository
	movements  stock.MovementRepository
	entries    ledger.EntryRepository
	engine     *ledger.PostingEngine
	costing    stock.CostingEngine
	catalog    ProductCatalog
	audit      AuditSink
	events     shared.EventPublisher
	logger     *zap.Logger
	maxRetries int
}

// NewPostingService creates a posting service
func NewPostingService(
	scope TransactionScope,
	positions stock.PositionRepository,
	movements stock.MovementRepository,
	entries ledger.EntryRepository,
	engine *ledger.PostingEngine,
	costing stock.CostingEngine,
	logger *zap.Logger,
) *PostingService {
	return &PostingService{
		scope:      scope,
		positions:  positions,
		movements:  movements,
		entries:    entries,
		engine:     engine,
		costing:    costing,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
	}
}

// SetProductCatalog sets the catalog used for fallback purchase costs
func (s *PostingService) SetProductCatalog(catalog ProductCatalog) {
	s.catalog = catalog
}

// SetAuditSink sets the audit sink notified after commit
func (s *PostingService) SetAuditSink(sink AuditSink) {
	s.audit = sink
}

// SetEventPublisher sets the publisher for domain events
func (s *PostingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// SetMaxRetries overrides the concurrency retry budget
func (s *PostingService) SetMaxRetries(n int) {
	if n >= 0 {
		s.maxRetries = n
	}
}

// runUnit executes one unit of work, retrying the whole unit on a lost
// concurrency race. The unit function must re-read all state on entry.
func (s *PostingService) runUnit(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.scope.Execute(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		lastErr = err
		s.logger.Debug("posting unit lost a concurrency race, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.maxRetries),
		)
	}
	return lastErr
}

// afterCommit publishes domain events and emits the audit fact. Neither
// may fail the already committed transaction; errors are logged only.
func (s *PostingService) afterCommit(ctx context.Context, tenantID uuid.UUID, action string, sourceType ledger.SourceType, sourceID, reference uuid.UUID, operatorID *uuid.UUID, events []shared.DomainEvent) {
	if s.events != nil && len(events) > 0 {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish domain events", zap.Error(err))
		}
	}
	if s.audit != nil {
		fact := AuditFact{
			TenantID:   tenantID,
			Action:     action,
			SourceType: sourceType.String(),
			SourceID:   sourceID,
			Reference:  reference,
			OperatorID: operatorID,
			OccurredAt: time.Now(),
		}
		if err := s.audit.Emit(ctx, fact); err != nil {
			s.logger.Warn("failed to emit audit fact",
				zap.String("reference", reference.String()),
				zap.Error(err),
			)
		}
	}
}

// drainEvents collects and clears pending domain events from aggregates
func drainEvents(aggregates ...shared.AggregateRoot) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, agg := range aggregates {
		out = append(out, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	return out
}

// resolveUnitCost picks the explicit unit cost or falls back to the
// product catalog when the receipt omits it
func (s *PostingService) resolveUnitCost(ctx context.Context, tenantID, productID uuid.UUID, unitCost *decimal.Decimal) (decimal.Decimal, error) {
	if unitCost != nil {
		if unitCost.IsNegative() {
			return decimal.Zero, shared.ErrInvalidCostingInput
		}
		return *unitCost, nil
	}
	if s.catalog == nil {
		return decimal.Zero, shared.NewDomainError("MISSING_UNIT_COST", "Unit cost not provided and no product catalog configured")
	}
	cost, err := s.catalog.FallbackPurchaseCost(ctx, tenantID, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("looking up fallback purchase cost: %w", err)
	}
	if cost.IsNegative() {
		return decimal.Zero, shared.ErrInvalidCostingInput
	}
	return cost, nil
}

// RecordPurchaseReceipt posts goods received: stock in at unit cost with
// a weighted-average recompute, a purchase_receipt movement, and a
// debit-inventory / credit-payable entry set. Posting the same purchase
// twice returns the stored result unchanged.
func (s *PostingService) RecordPurchaseReceipt(ctx context.Context, tenantID uuid.UUID, req PurchaseReceiptRequest) (*PurchaseReceiptResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}

	unitCost, err := s.resolveUnitCost(ctx, tenantID, req.ProductID, req.UnitCost)
	if err != nil {
		return nil, err
	}

	accounts, err := s.engine.ResolveAccounts(ctx, tenantID, ledger.RoleInventory, ledger.RolePayable)
	if err != nil {
		return nil, err
	}

	var result *PurchaseReceiptResult
	var pending []shared.DomainEvent

	err = s.runUnit(ctx, func(repos TransactionalRepositories) error {
		result, pending = nil, nil

		if record, err := repos.Idempotency().FindBySource(ctx, tenantID, ledger.SourceTypePurchase, req.PurchaseID); err == nil {
			position, perr := repos.Positions().FindByScope(ctx, tenantID, req.ProductID, req.WarehouseID)
			if perr != nil {
				return perr
			}
			result = &PurchaseReceiptResult{
				Position:  ToStockPositionResponse(position),
				Reference: record.Reference,
				Duplicate: true,
			}
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		position, err := repos.Positions().GetOrCreate(ctx, tenantID, req.ProductID, req.WarehouseID)
		if err != nil {
			return err
		}

		balanceBefore := position.Quantity
		if err := position.AddInbound(req.Quantity, unitCost, s.costing); err != nil {
			return err
		}

		movement, err := stock.NewStockMovement(position, stock.MovementTypePurchaseReceipt,
			req.Quantity, unitCost, balanceBefore, stock.SourceTypePurchase, req.PurchaseID)
		if err != nil {
			return err
		}
		if req.OperatorID != nil {
			movement.WithOperator(*req.OperatorID)
		}

		if err := repos.Positions().SaveWithLock(ctx, position); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}

		built, err := s.engine.BuildPurchaseReceipt(tenantID, accounts, req.PurchaseID, req.Quantity, unitCost)
		if err != nil {
			return err
		}
		if err := repos.Entries().AppendSet(ctx, built.Entries); err != nil {
			return err
		}
		if err := repos.Idempotency().Create(ctx, built.Record); err != nil {
			return err
		}

		pending = drainEvents(position)
		result = &PurchaseReceiptResult{
			Position:  ToStockPositionResponse(position),
			Reference: built.Reference,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.afterCommit(ctx, tenantID, "purchase_receipt", ledger.SourceTypePurchase, req.PurchaseID, result.Reference, req.OperatorID, pending)
	}
	return result, nil
}

// RecordSaleCompletion posts a completed sale: per-line deductions at the
// pre-movement average cost, sale_deduction movements, and one balanced
// entry set covering the revenue and COGS legs of all lines.
func (s *PostingService) RecordSaleCompletion(ctx context.Context, tenantID uuid.UUID, req SaleCompletionRequest) (*PostingResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_LINES", "Sale must have at least one line item")
	}
	for _, line := range req.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
		}
		if line.SaleAmount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Line sale amount cannot be negative")
		}
	}

	accounts, err := s.engine.ResolveAccounts(ctx, tenantID,
		ledger.RoleCash, ledger.RoleSalesRevenue, ledger.RoleCOGS, ledger.RoleInventory)
	if err != nil {
		return nil, err
	}

	var result *PostingResult
	var pending []shared.DomainEvent

	err = s.runUnit(ctx, func(repos TransactionalRepositories) error {
		result, pending = nil, nil

		if record, err := repos.Idempotency().FindBySource(ctx, tenantID, ledger.SourceTypeSale, req.SaleID); err == nil {
			result = &PostingResult{Reference: record.Reference, Duplicate: true}
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		// Order the lines by position id so concurrent multi-row units
		// always lock rows in the same direction.
		lines, err := s.sortLinesByPosition(ctx, repos, tenantID, req.Lines)
		if err != nil {
			return err
		}

		saleAmount := decimal.Zero
		cogsAmount := decimal.Zero

		for _, line := range lines {
			position, err := repos.Positions().FindByScope(ctx, tenantID, line.ProductID, line.WarehouseID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.ErrInsufficientStock
				}
				return err
			}

			// The cost consumed by this deduction: captured from the same
			// read that checks and decrements the quantity.
			unitCost := position.AvgUnitCost
			balanceBefore := position.Quantity

			if err := position.Deduct(line.Quantity); err != nil {
				return err
			}

			movement, err := stock.NewStockMovement(position, stock.MovementTypeSaleDeduction,
				line.Quantity.Neg(), unitCost, balanceBefore, stock.SourceTypeSale, req.SaleID)
			if err != nil {
				return err
			}
			if req.OperatorID != nil {
				movement.WithOperator(*req.OperatorID)
			}

			if err := repos.Positions().SaveWithLock(ctx, position); err != nil {
				return err
			}
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}

			saleAmount = saleAmount.Add(line.SaleAmount)
			cogsAmount = cogsAmount.Add(line.Quantity.Mul(unitCost))
			pending = append(pending, drainEvents(position)...)
		}

		built, err := s.engine.BuildSaleCompletion(tenantID, accounts, req.SaleID, saleAmount, cogsAmount)
		if err != nil {
			return err
		}
		if err := repos.Entries().AppendSet(ctx, built.Entries); err != nil {
			return err
		}
		if err := repos.Idempotency().Create(ctx, built.Record); err != nil {
			return err
		}

		result = &PostingResult{Reference: built.Reference}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.afterCommit(ctx, tenantID, "sale_completion", ledger.SourceTypeSale, req.SaleID, result.Reference, req.OperatorID, pending)
	}
	return result, nil
}

// sortLinesByPosition returns the sale lines ordered by the id of the
// stock position they touch, ascending. Lines for unknown positions keep
// the zero id and fail later with the insufficient-stock error from the
// line processing itself.
func (s *PostingService) sortLinesByPosition(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, lines []SaleLineItem) ([]SaleLineItem, error) {
	type keyed struct {
		line SaleLineItem
		id   uuid.UUID
	}
	keyedLines := make([]keyed, 0, len(lines))
	for _, line := range lines {
		position, err := repos.Positions().FindByScope(ctx, tenantID, line.ProductID, line.WarehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				keyedLines = append(keyedLines, keyed{line: line})
				continue
			}
			return nil, err
		}
		keyedLines = append(keyedLines, keyed{line: line, id: position.ID})
	}

	sort.SliceStable(keyedLines, func(i, j int) bool {
		return bytes.Compare(keyedLines[i].id[:], keyedLines[j].id[:]) < 0
	})

	sorted := make([]SaleLineItem, len(keyedLines))
	for i, k := range keyedLines {
		sorted[i] = k.line
	}
	return sorted, nil
}

// RecordTransfer moves stock between warehouses. The receiving position
// takes the stock in at the sending position's average cost, so total
// inventory value is conserved and no P&L entries are posted.
func (s *PostingService) RecordTransfer(ctx context.Context, tenantID uuid.UUID, req TransferRequest) (*PostingResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Transfer source and destination must differ")
	}

	var result *PostingResult
	var pending []shared.DomainEvent

	err := s.runUnit(ctx, func(repos TransactionalRepositories) error {
		result, pending = nil, nil

		if record, err := repos.Idempotency().FindBySource(ctx, tenantID, ledger.SourceTypeTransfer, req.TransferID); err == nil {
			result = &PostingResult{Reference: record.Reference, Duplicate: true}
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		from, err := repos.Positions().FindByScope(ctx, tenantID, req.ProductID, req.FromWarehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrInsufficientStock
			}
			return err
		}
		to, err := repos.Positions().GetOrCreate(ctx, tenantID, req.ProductID, req.ToWarehouseID)
		if err != nil {
			return err
		}

		unitCost := from.AvgUnitCost
		fromBefore := from.Quantity
		toBefore := to.Quantity

		if err := from.Deduct(req.Quantity); err != nil {
			return err
		}
		if err := to.AddInbound(req.Quantity, unitCost, s.costing); err != nil {
			return err
		}

		out, err := stock.NewStockMovement(from, stock.MovementTypeTransferOut,
			req.Quantity.Neg(), unitCost, fromBefore, stock.SourceTypeTransfer, req.TransferID)
		if err != nil {
			return err
		}
		in, err := stock.NewStockMovement(to, stock.MovementTypeTransferIn,
			req.Quantity, unitCost, toBefore, stock.SourceTypeTransfer, req.TransferID)
		if err != nil {
			return err
		}
		if req.OperatorID != nil {
			out.WithOperator(*req.OperatorID)
			in.WithOperator(*req.OperatorID)
		}

		// Both rows are written in ascending position-id order so two
		// concurrent transfers over the same pair cannot deadlock.
		first, second := from, to
		if bytes.Compare(to.ID[:], from.ID[:]) < 0 {
			first, second = to, from
		}
		if err := repos.Positions().SaveWithLock(ctx, first); err != nil {
			return err
		}
		if err := repos.Positions().SaveWithLock(ctx, second); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, out); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, in); err != nil {
			return err
		}

		built, err := s.engine.BuildTransfer(tenantID, req.TransferID)
		if err != nil {
			return err
		}
		if err := repos.Entries().AppendSet(ctx, built.Entries); err != nil {
			return err
		}
		if err := repos.Idempotency().Create(ctx, built.Record); err != nil {
			return err
		}

		pending = drainEvents(from, to)
		result = &PostingResult{Reference: built.Reference}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.afterCommit(ctx, tenantID, "transfer", ledger.SourceTypeTransfer, req.TransferID, result.Reference, req.OperatorID, pending)
	}
	return result, nil
}

// RecordAdjustment reconciles a position to a physically counted quantity.
// The variance is valued at the current average cost (discovered surplus
// has no cost information of its own) and posted against the adjustment
// gain or loss account.
func (s *PostingService) RecordAdjustment(ctx context.Context, tenantID uuid.UUID, req AdjustmentRequest) (*PostingResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	accounts, err := s.engine.ResolveAccounts(ctx, tenantID,
		ledger.RoleInventory, ledger.RoleAdjustmentGain, ledger.RoleAdjustmentLoss)
	if err != nil {
		return nil, err
	}

	var result *PostingResult
	var pending []shared.DomainEvent

	err = s.runUnit(ctx, func(repos TransactionalRepositories) error {
		result, pending = nil, nil

		if record, err := repos.Idempotency().FindBySource(ctx, tenantID, ledger.SourceTypeAdjustment, req.ReferenceID); err == nil {
			result = &PostingResult{Reference: record.Reference, Duplicate: true}
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		position, err := repos.Positions().GetOrCreate(ctx, tenantID, req.ProductID, req.WarehouseID)
		if err != nil {
			return err
		}

		unitCost := position.AvgUnitCost
		balanceBefore := position.Quantity

		variance, err := position.AdjustTo(req.CountedQty, req.Note)
		if err != nil {
			return err
		}

		if err := repos.Positions().SaveWithLock(ctx, position); err != nil {
			return err
		}

		// A count that matches the records produces no movement and no
		// entries, only the idempotency record.
		if !variance.IsZero() {
			movement, err := stock.NewStockMovement(position, stock.MovementTypeReconciliation,
				variance, unitCost, balanceBefore, stock.SourceTypeAdjustment, req.ReferenceID)
			if err != nil {
				return err
			}
			movement.WithNote(req.Note)
			if req.OperatorID != nil {
				movement.WithOperator(*req.OperatorID)
			}
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}
		}

		built, err := s.engine.BuildAdjustment(tenantID, accounts, req.ReferenceID, variance.Mul(unitCost))
		if err != nil {
			return err
		}
		if err := repos.Entries().AppendSet(ctx, built.Entries); err != nil {
			return err
		}
		if err := repos.Idempotency().Create(ctx, built.Record); err != nil {
			return err
		}

		pending = drainEvents(position)
		result = &PostingResult{Reference: built.Reference}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.afterCommit(ctx, tenantID, "adjustment", ledger.SourceTypeAdjustment, req.ReferenceID, result.Reference, req.OperatorID, pending)
	}
	return result, nil
}

// ReserveStock holds quantity for a pending order. Reservations are pure
// stock bookkeeping: no movement and no posting until the order completes.
func (s *PostingService) ReserveStock(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, qty decimal.Decimal) error {
	return s.mutatePosition(ctx, tenantID, productID, warehouseID, func(p *stock.StockPosition) error {
		return p.Reserve(qty)
	})
}

// ReleaseStock returns reserved quantity to available stock, clamped at
// zero when more is released than was held.
func (s *PostingService) ReleaseStock(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, qty decimal.Decimal) error {
	return s.mutatePosition(ctx, tenantID, productID, warehouseID, func(p *stock.StockPosition) error {
		return p.Release(qty)
	})
}

func (s *PostingService) mutatePosition(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, mutate func(*stock.StockPosition) error) error {
	if tenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	var pending []shared.DomainEvent
	err := s.runUnit(ctx, func(repos TransactionalRepositories) error {
		pending = nil
		position, err := repos.Positions().FindByScope(ctx, tenantID, productID, warehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrInsufficientStock
			}
			return err
		}
		if err := mutate(position); err != nil {
			return err
		}
		if err := repos.Positions().SaveWithLock(ctx, position); err != nil {
			return err
		}
		pending = drainEvents(position)
		return nil
	})
	if err != nil {
		return err
	}

	if s.events != nil && len(pending) > 0 {
		if err := s.events.Publish(ctx, pending...); err != nil {
			s.logger.Warn("failed to publish domain events", zap.Error(err))
		}
	}
	return nil
}

// GetStockPosition returns the current position for a product-warehouse
// pair
func (s *PostingService) GetStockPosition(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*StockPositionResponse, error) {
	position, err := s.positions.FindByScope(ctx, tenantID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	response := ToStockPositionResponse(position)
	return &response, nil
}

// ListPositionsByWarehouse lists the stock held in one warehouse
func (s *PostingService) ListPositionsByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]StockPositionResponse, error) {
	items, err := s.positions.ListByWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]StockPositionResponse, len(items))
	for i := range items {
		out[i] = ToStockPositionResponse(&items[i])
	}
	return out, nil
}

// GetTotalQuantityByProduct sums a product's on-hand quantity across all
// warehouses
func (s *PostingService) GetTotalQuantityByProduct(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	return s.positions.SumQuantityByProduct(ctx, tenantID, productID)
}

// GetLedgerEntries returns the balanced entry set posted under a reference
func (s *PostingService) GetLedgerEntries(ctx context.Context, tenantID, reference uuid.UUID) (ledger.EntrySet, error) {
	return s.entries.FindByReference(ctx, tenantID, reference)
}

// GetMovementsBySource returns the movements generated by one business
// document
func (s *PostingService) GetMovementsBySource(ctx context.Context, tenantID uuid.UUID, sourceType stock.SourceType, sourceID uuid.UUID) ([]stock.StockMovement, error) {
	return s.movements.ListBySource(ctx, tenantID, sourceType, sourceID)
}

// GetAccountTotals returns per-account debit/credit totals, the input for
// trial-balance reporting
func (s *PostingService) GetAccountTotals(ctx context.Context, tenantID uuid.UUID) ([]ledger.AccountTotals, error) {
	return s.entries.SumByAccount(ctx, tenantID)
}
