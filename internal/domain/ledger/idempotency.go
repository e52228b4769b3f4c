package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
)

// IdempotencyRecord guarantees at-most-one posting per business event.
// The (tenant, source_type, source_id) key is unique; the record is
// written in the same atomic unit as the ledger entries it protects, so a
// retried or concurrent attempt either sees the record and returns the
// stored reference, or loses the unique-index race at commit.
type IdempotencyRecord struct {
	shared.BaseEntity
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_posting_idem_source,priority:1"`
	SourceType SourceType `gorm:"type:varchar(30);not null;uniqueIndex:idx_posting_idem_source,priority:2"`
	SourceID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_posting_idem_source,priority:3"`
	Reference  uuid.UUID  `gorm:"type:uuid;not null"`
	PostedAt   time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (IdempotencyRecord) TableName() string {
	return "posting_idempotency_records"
}

// NewIdempotencyRecord creates an idempotency record for a posting
func NewIdempotencyRecord(tenantID uuid.UUID, sourceType SourceType, sourceID, reference uuid.UUID) (*IdempotencyRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}
	if reference == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Posting reference cannot be empty")
	}

	return &IdempotencyRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		SourceType: sourceType,
		SourceID:   sourceID,
		Reference:  reference,
		PostedAt:   time.Now(),
	}, nil
}

// IdempotencyRepository persists posting idempotency records
type IdempotencyRepository interface {
	// Create stores the record; a duplicate key returns
	// shared.ErrConcurrencyConflict so the caller re-reads the winner
	Create(ctx context.Context, record *IdempotencyRecord) error
	// FindBySource returns the record for a business event, or
	// shared.ErrNotFound when the event has not been posted
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) (*IdempotencyRecord, error)
}
