package posting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditFact describes one committed posting for the audit log sink
type AuditFact struct {
	TenantID   uuid.UUID
	Action     string
	SourceType string
	SourceID   uuid.UUID
	Reference  uuid.UUID
	OperatorID *uuid.UUID
	OccurredAt time.Time
}

// AuditSink receives audit facts after commit. A sink failure is logged
// and swallowed: audit trouble must never roll back a committed financial
// transaction.
type AuditSink interface {
	Emit(ctx context.Context, fact AuditFact) error
}

// LoggingAuditSink writes audit facts to the structured log
type LoggingAuditSink struct {
	logger *zap.Logger
}

// NewLoggingAuditSink creates a log-backed audit sink
func NewLoggingAuditSink(logger *zap.Logger) *LoggingAuditSink {
	return &LoggingAuditSink{logger: logger}
}

// Emit logs the audit fact
func (s *LoggingAuditSink) Emit(_ context.Context, fact AuditFact) error {
	fields := []zap.Field{
		zap.String("tenant_id", fact.TenantID.String()),
		zap.String("action", fact.Action),
		zap.String("source_type", fact.SourceType),
		zap.String("source_id", fact.SourceID.String()),
		zap.String("reference", fact.Reference.String()),
		zap.Time("occurred_at", fact.OccurredAt),
	}
	if fact.OperatorID != nil {
		fields = append(fields, zap.String("operator_id", fact.OperatorID.String()))
	}
	s.logger.Info("posting committed", fields...)
	return nil
}

var _ AuditSink = (*LoggingAuditSink)(nil)
