package event

import "github.com/genlab/backend/internal/domain/ledger"

// NewLedgerSerializer returns a serializer that knows every ledger event
func NewLedgerSerializer() *EventSerializer {
	s := NewEventSerializer()

	s.Register(ledger.EventTypeInputCreated, &ledger.InputCreatedEvent{})
	s.Register(ledger.EventTypeInputConsumptionChanged, &ledger.InputConsumptionChangedEvent{})
	s.Register(ledger.EventTypeInputReceivedChanged, &ledger.InputReceivedChangedEvent{})
	s.Register(ledger.EventTypeInputCancelled, &ledger.InputCancelledEvent{})
	s.Register(ledger.EventTypeInputDeleted, &ledger.InputDeletedEvent{})

	s.Register(ledger.EventTypeOutputRecorded, &ledger.OutputEvent{})
	s.Register(ledger.EventTypeOutputChanged, &ledger.OutputEvent{})
	s.Register(ledger.EventTypeOutputDeleted, &ledger.OutputEvent{})

	s.Register(ledger.EventTypeBatchCompensated, &ledger.BatchCompensatedEvent{})

	return s
}
