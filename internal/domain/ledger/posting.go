package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/merx/erp/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Posting is one balanced ledger posting: the entry set, the reference
// grouping it, and the idempotency record that must be committed with it.
type Posting struct {
	Reference uuid.UUID
	Entries   EntrySet
	Record    *IdempotencyRecord
}

// PostingEngine builds balanced entry sets for business events. Amounts
// are always supplied by the coordinator from the same locked read that
// mutated stock; the engine never re-derives them. Every build asserts
// the balance invariant before returning - a violation is an internal
// defect (shared.ErrUnbalancedEntry), not a caller error.
type PostingEngine struct {
	resolver AccountResolver
	currency valueobject.Currency
}

// NewPostingEngine creates a posting engine
func NewPostingEngine(resolver AccountResolver, currency valueobject.Currency) *PostingEngine {
	return &PostingEngine{resolver: resolver, currency: currency}
}

// ResolveAccounts resolves the accounts for all given roles up front, so
// lookups happen before the atomic transaction opens. Any missing role
// fails the whole resolution with shared.ErrAccountNotFound.
func (e *PostingEngine) ResolveAccounts(ctx context.Context, tenantID uuid.UUID, roles ...AccountRole) (AccountSet, error) {
	set := make(AccountSet, len(roles))
	for _, role := range roles {
		id, err := e.resolver.Resolve(ctx, tenantID, role)
		if err != nil {
			return nil, err
		}
		set[role] = id
	}
	return set, nil
}

// round applies monetary rounding once, at the currency minor unit
func (e *PostingEngine) round(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(e.currency.MinorUnits())
}

// BuildPurchaseReceipt posts goods received: debit inventory, credit
// payable, both at qty * unitCost.
func (e *PostingEngine) BuildPurchaseReceipt(tenantID uuid.UUID, accounts AccountSet, purchaseID uuid.UUID, qty, unitCost decimal.Decimal) (*Posting, error) {
	total := e.round(qty.Mul(unitCost))
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Purchase receipt value must be positive")
	}

	reference := uuid.New()
	description := fmt.Sprintf("Purchase receipt %s", purchaseID)

	inventory, err := accounts.Get(RoleInventory)
	if err != nil {
		return nil, err
	}
	payable, err := accounts.Get(RolePayable)
	if err != nil {
		return nil, err
	}

	debit, err := NewDebit(tenantID, reference, inventory, total, description, SourceTypePurchase, purchaseID)
	if err != nil {
		return nil, err
	}
	credit, err := NewCredit(tenantID, reference, payable, total, description, SourceTypePurchase, purchaseID)
	if err != nil {
		return nil, err
	}

	return e.finalize(tenantID, SourceTypePurchase, purchaseID, reference, EntrySet{debit, credit})
}

// BuildSaleCompletion posts a completed sale: the revenue leg (debit cash
// or receivable, credit sales revenue, at the sale amount) and the cost
// leg (debit COGS, credit inventory, at the pre-movement average cost
// consumed by the deduction). A zero-valued leg is omitted.
func (e *PostingEngine) BuildSaleCompletion(tenantID uuid.UUID, accounts AccountSet, saleID uuid.UUID, saleAmount, cogsAmount decimal.Decimal) (*Posting, error) {
	if saleAmount.IsNegative() || cogsAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sale and COGS amounts cannot be negative")
	}

	saleAmount = e.round(saleAmount)
	cogsAmount = e.round(cogsAmount)

	reference := uuid.New()
	description := fmt.Sprintf("Sale completion %s", saleID)
	entries := EntrySet{}

	if saleAmount.IsPositive() {
		cash, err := accounts.Get(RoleCash)
		if err != nil {
			return nil, err
		}
		revenue, err := accounts.Get(RoleSalesRevenue)
		if err != nil {
			return nil, err
		}
		debit, err := NewDebit(tenantID, reference, cash, saleAmount, description, SourceTypeSale, saleID)
		if err != nil {
			return nil, err
		}
		credit, err := NewCredit(tenantID, reference, revenue, saleAmount, description, SourceTypeSale, saleID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, debit, credit)
	}

	if cogsAmount.IsPositive() {
		cogs, err := accounts.Get(RoleCOGS)
		if err != nil {
			return nil, err
		}
		inventory, err := accounts.Get(RoleInventory)
		if err != nil {
			return nil, err
		}
		debit, err := NewDebit(tenantID, reference, cogs, cogsAmount, description, SourceTypeSale, saleID)
		if err != nil {
			return nil, err
		}
		credit, err := NewCredit(tenantID, reference, inventory, cogsAmount, description, SourceTypeSale, saleID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, debit, credit)
	}

	return e.finalize(tenantID, SourceTypeSale, saleID, reference, entries)
}

// BuildTransfer posts a warehouse transfer. Transfers are an internal
// reclassification with no P&L impact, so the entry set is empty; the
// reference and idempotency record still exist so the event posts exactly
// once and remains addressable.
func (e *PostingEngine) BuildTransfer(tenantID, transferID uuid.UUID) (*Posting, error) {
	reference := uuid.New()
	return e.finalize(tenantID, SourceTypeTransfer, transferID, reference, EntrySet{})
}

// BuildAdjustment posts an inventory count variance: a surplus debits
// inventory against adjustment gain, a shortage debits adjustment loss
// against inventory. A zero variance posts no entries.
func (e *PostingEngine) BuildAdjustment(tenantID uuid.UUID, accounts AccountSet, adjustmentID uuid.UUID, varianceValue decimal.Decimal) (*Posting, error) {
	varianceValue = e.round(varianceValue)

	reference := uuid.New()
	description := fmt.Sprintf("Inventory adjustment %s", adjustmentID)
	entries := EntrySet{}

	switch {
	case varianceValue.IsPositive():
		inventory, err := accounts.Get(RoleInventory)
		if err != nil {
			return nil, err
		}
		gain, err := accounts.Get(RoleAdjustmentGain)
		if err != nil {
			return nil, err
		}
		debit, err := NewDebit(tenantID, reference, inventory, varianceValue, description, SourceTypeAdjustment, adjustmentID)
		if err != nil {
			return nil, err
		}
		credit, err := NewCredit(tenantID, reference, gain, varianceValue, description, SourceTypeAdjustment, adjustmentID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, debit, credit)

	case varianceValue.IsNegative():
		value := varianceValue.Abs()
		inventory, err := accounts.Get(RoleInventory)
		if err != nil {
			return nil, err
		}
		loss, err := accounts.Get(RoleAdjustmentLoss)
		if err != nil {
			return nil, err
		}
		debit, err := NewDebit(tenantID, reference, loss, value, description, SourceTypeAdjustment, adjustmentID)
		if err != nil {
			return nil, err
		}
		credit, err := NewCredit(tenantID, reference, inventory, value, description, SourceTypeAdjustment, adjustmentID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, debit, credit)
	}

	return e.finalize(tenantID, SourceTypeAdjustment, adjustmentID, reference, entries)
}

// finalize asserts the balance invariant and attaches the idempotency
// record that must commit atomically with the entries.
func (e *PostingEngine) finalize(tenantID uuid.UUID, sourceType SourceType, sourceID, reference uuid.UUID, entries EntrySet) (*Posting, error) {
	if !entries.IsBalanced() {
		return nil, fmt.Errorf("posting %s for %s %s: debit %s != credit %s: %w",
			reference, sourceType, sourceID,
			entries.TotalDebit(), entries.TotalCredit(), shared.ErrUnbalancedEntry)
	}

	record, err := NewIdempotencyRecord(tenantID, sourceType, sourceID, reference)
	if err != nil {
		return nil, err
	}

	return &Posting{
		Reference: reference,
		Entries:   entries,
		Record:    record,
	}, nil
}
