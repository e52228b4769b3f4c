package event

import (
	"context"

	"github.com/merx/erp/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingHandler is a wildcard handler that writes every domain event to
// the log, giving an operator a flat audit trail of stock activity.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.Named("events")}
}

// Handle implements shared.EventHandler
func (h *LoggingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice: this handler receives all events
func (h *LoggingHandler) EventTypes() []string {
	return nil
}
