package event

import (
	"context"
	"encoding/json"

	"github.com/factorpool/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the structured log as an
// audit trail of ledger movements
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// Handle logs the event with its full payload
func (h *AuditLogHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		payload = []byte("{}")
	}
	h.logger.Info("domain event",
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EventTypes returns an empty list so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Ensure AuditLogHandler implements EventHandler
var _ shared.EventHandler = (*AuditLogHandler)(nil)
