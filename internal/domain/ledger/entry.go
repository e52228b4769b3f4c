package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SourceType identifies the business document that triggered a posting
type SourceType string

const (
	SourceTypePurchase   SourceType = "purchase"
	SourceTypeSale       SourceType = "sale"
	SourceTypeTransfer   SourceType = "transfer"
	SourceTypeAdjustment SourceType = "adjustment"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypePurchase, SourceTypeSale, SourceTypeTransfer, SourceTypeAdjustment:
		return true
	}
	return false
}

// LedgerEntry is one side of a double-entry posting. Exactly one of
// Debit/Credit is non-zero. Entries are immutable after creation:
// corrections are reversing entries, never edits. All entries sharing a
// Reference form one balanced set.
type LedgerEntry struct {
	shared.BaseEntity
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entry_tenant_ref,priority:1"`
	Reference   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entry_tenant_ref,priority:2"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entry_account"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Description string          `gorm:"type:varchar(255)"`
	SourceType  SourceType      `gorm:"type:varchar(30);not null;index:idx_ledger_entry_source,priority:1"`
	SourceID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entry_source,priority:2"`
	PostedAt    time.Time       `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

func newEntry(tenantID, reference, accountID uuid.UUID, debit, credit decimal.Decimal, description string, sourceType SourceType, sourceID uuid.UUID) (LedgerEntry, error) {
	if accountID == uuid.Nil {
		return LedgerEntry{}, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return LedgerEntry{}, shared.NewDomainError("INVALID_AMOUNT", "Entry amounts cannot be negative")
	}
	if debit.IsPositive() == credit.IsPositive() {
		return LedgerEntry{}, shared.NewDomainError("INVALID_AMOUNT", "Exactly one of debit and credit must be non-zero")
	}
	if !sourceType.IsValid() {
		return LedgerEntry{}, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}

	return LedgerEntry{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Reference:   reference,
		AccountID:   accountID,
		Debit:       debit,
		Credit:      credit,
		Description: description,
		SourceType:  sourceType,
		SourceID:    sourceID,
		PostedAt:    time.Now(),
	}, nil
}

// NewDebit creates a debit-side entry
func NewDebit(tenantID, reference, accountID uuid.UUID, amount decimal.Decimal, description string, sourceType SourceType, sourceID uuid.UUID) (LedgerEntry, error) {
	return newEntry(tenantID, reference, accountID, amount, decimal.Zero, description, sourceType, sourceID)
}

// NewCredit creates a credit-side entry
func NewCredit(tenantID, reference, accountID uuid.UUID, amount decimal.Decimal, description string, sourceType SourceType, sourceID uuid.UUID) (LedgerEntry, error) {
	return newEntry(tenantID, reference, accountID, decimal.Zero, amount, description, sourceType, sourceID)
}

// EntrySet is the group of entries sharing one posting reference
type EntrySet []LedgerEntry

// TotalDebit sums the debit side of the set
func (s EntrySet) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		total = total.Add(e.Debit)
	}
	return total
}

// TotalCredit sums the credit side of the set
func (s EntrySet) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		total = total.Add(e.Credit)
	}
	return total
}

// IsBalanced reports whether total debits equal total credits
func (s EntrySet) IsBalanced() bool {
	return s.TotalDebit().Equal(s.TotalCredit())
}

// AccountTotals aggregates debit and credit amounts for one account,
// the shape consumed by trial-balance reporting.
type AccountTotals struct {
	AccountID   uuid.UUID       `json:"account_id"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}

// EntryRepository persists ledger entries. Append-only: entries are never
// mutated after creation.
type EntryRepository interface {
	// AppendSet stores all entries of one balanced set
	AppendSet(ctx context.Context, entries EntrySet) error
	// FindByReference returns the entry set posted under a reference
	FindByReference(ctx context.Context, tenantID, reference uuid.UUID) (EntrySet, error)
	// FindBySource returns the entries generated by one business document
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) (EntrySet, error)
	// SumByAccount returns per-account debit/credit totals for the tenant
	SumByAccount(ctx context.Context, tenantID uuid.UUID) ([]AccountTotals, error)
}
