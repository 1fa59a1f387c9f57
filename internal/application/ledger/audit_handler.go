package ledger

import (
	"context"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditHandler writes every ledger movement to the structured log so that
// stock changes can be reconstructed after the fact
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{logger: logger.Named("ledger.audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeInputCreated,
		ledger.EventTypeInputConsumptionChanged,
		ledger.EventTypeInputReceivedChanged,
		ledger.EventTypeInputCancelled,
		ledger.EventTypeInputDeleted,
		ledger.EventTypeOutputRecorded,
		ledger.EventTypeOutputChanged,
		ledger.EventTypeOutputDeleted,
		ledger.EventTypeBatchCompensated,
	}
}

// Handle logs the event. It never fails so a broken log sink cannot block publishing.
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *ledger.InputCreatedEvent:
		fields = append(fields,
			zap.String("bull_id", e.BullID.String()),
			zap.String("owner_id", e.OwnerID.String()),
			zap.String("quantity_received", e.Received.String()),
		)
	case *ledger.InputConsumptionChangedEvent:
		fields = append(fields,
			zap.String("previous_taken", e.PreviousTaken.String()),
			zap.String("taken", e.Taken.String()),
			zap.String("total", e.Total.String()),
			zap.String("previous_status", string(e.PreviousStatus)),
			zap.String("status", string(e.Status)),
		)
	case *ledger.InputReceivedChangedEvent:
		fields = append(fields,
			zap.String("previous_received", e.PreviousReceived.String()),
			zap.String("received", e.Received.String()),
			zap.String("status", string(e.Status)),
		)
	case *ledger.InputCancelledEvent:
		fields = append(fields, zap.String("previous_status", string(e.PreviousStatus)))
	case *ledger.OutputEvent:
		fields = append(fields,
			zap.String("input_id", e.InputID.String()),
			zap.String("quantity_output", e.Quantity.String()),
		)
	case *ledger.BatchCompensatedEvent:
		fields = append(fields,
			zap.Int("outputs_removed", e.OutputsRemoved),
			zap.Int("inputs_restored", e.InputsRestored),
			zap.String("amount_restored", e.AmountRestored.String()),
		)
	}

	h.logger.Info("ledger movement", fields...)
	return nil
}
