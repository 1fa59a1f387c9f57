package ledger

import (
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeInput           = "Input"
	AggregateTypeOutput          = "Output"
	AggregateTypeProductionBatch = "ProductionBatch"
)

// Event type constants
const (
	EventTypeInputCreated            = "InputCreated"
	EventTypeInputConsumptionChanged = "InputConsumptionChanged"
	EventTypeInputReceivedChanged    = "InputReceivedChanged"
	EventTypeInputCancelled          = "InputCancelled"
	EventTypeInputDeleted            = "InputDeleted"
	EventTypeOutputRecorded          = "OutputRecorded"
	EventTypeOutputChanged           = "OutputChanged"
	EventTypeOutputDeleted           = "OutputDeleted"
	EventTypeBatchCompensated        = "ProductionBatchCompensated"
)

// InputCreatedEvent is raised when material is registered for a bull
type InputCreatedEvent struct {
	shared.BaseDomainEvent
	InputID  uuid.UUID            `json:"input_id"`
	BullID   uuid.UUID            `json:"bull_id"`
	OwnerID  uuid.UUID            `json:"owner_id"`
	Received valueobject.Quantity `json:"quantity_received"`
}

// NewInputCreatedEvent creates a new InputCreatedEvent
func NewInputCreatedEvent(i *Input) *InputCreatedEvent {
	return &InputCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInputCreated, AggregateTypeInput, i.ID),
		InputID:         i.ID,
		BullID:          i.BullID,
		OwnerID:         i.UserID,
		Received:        i.QuantityReceived,
	}
}

// InputConsumptionChangedEvent is raised whenever taken is re-derived to a new value
type InputConsumptionChangedEvent struct {
	shared.BaseDomainEvent
	InputID        uuid.UUID            `json:"input_id"`
	PreviousTaken  valueobject.Quantity `json:"previous_taken"`
	Taken          valueobject.Quantity `json:"taken"`
	Total          valueobject.Quantity `json:"total"`
	PreviousStatus InputStatus          `json:"previous_status"`
	Status         InputStatus          `json:"status"`
}

// NewInputConsumptionChangedEvent creates a new InputConsumptionChangedEvent
func NewInputConsumptionChangedEvent(i *Input, previousTaken valueobject.Quantity, previousStatus InputStatus) *InputConsumptionChangedEvent {
	return &InputConsumptionChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInputConsumptionChanged, AggregateTypeInput, i.ID),
		InputID:         i.ID,
		PreviousTaken:   previousTaken,
		Taken:           i.QuantityTaken,
		Total:           i.Total,
		PreviousStatus:  previousStatus,
		Status:          i.Status,
	}
}

// InputReceivedChangedEvent is raised when the received quantity is corrected
type InputReceivedChangedEvent struct {
	shared.BaseDomainEvent
	InputID          uuid.UUID            `json:"input_id"`
	PreviousReceived valueobject.Quantity `json:"previous_received"`
	Received         valueobject.Quantity `json:"received"`
	Status           InputStatus          `json:"status"`
}

// NewInputReceivedChangedEvent creates a new InputReceivedChangedEvent
func NewInputReceivedChangedEvent(i *Input, previous valueobject.Quantity) *InputReceivedChangedEvent {
	return &InputReceivedChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeInputReceivedChanged, AggregateTypeInput, i.ID),
		InputID:          i.ID,
		PreviousReceived: previous,
		Received:         i.QuantityReceived,
		Status:           i.Status,
	}
}

// InputCancelledEvent is raised when an untouched Input is cancelled
type InputCancelledEvent struct {
	shared.BaseDomainEvent
	InputID        uuid.UUID   `json:"input_id"`
	PreviousStatus InputStatus `json:"previous_status"`
}

// NewInputCancelledEvent creates a new InputCancelledEvent
func NewInputCancelledEvent(i *Input, previous InputStatus) *InputCancelledEvent {
	return &InputCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInputCancelled, AggregateTypeInput, i.ID),
		InputID:         i.ID,
		PreviousStatus:  previous,
	}
}

// InputDeletedEvent is raised when an Input without withdrawals is removed
type InputDeletedEvent struct {
	shared.BaseDomainEvent
	InputID  uuid.UUID            `json:"input_id"`
	BullID   uuid.UUID            `json:"bull_id"`
	Received valueobject.Quantity `json:"quantity_received"`
}

// NewInputDeletedEvent creates a new InputDeletedEvent
func NewInputDeletedEvent(i *Input) *InputDeletedEvent {
	return &InputDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInputDeleted, AggregateTypeInput, i.ID),
		InputID:         i.ID,
		BullID:          i.BullID,
		Received:        i.QuantityReceived,
	}
}

// OutputEvent is raised when a withdrawal is recorded, changed or deleted
type OutputEvent struct {
	shared.BaseDomainEvent
	OutputID uuid.UUID            `json:"output_id"`
	InputID  uuid.UUID            `json:"input_id"`
	Quantity valueobject.Quantity `json:"quantity_output"`
}

// NewOutputEvent creates an OutputEvent of the given type
func NewOutputEvent(eventType string, o *Output) *OutputEvent {
	return &OutputEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOutput, o.ID),
		OutputID:        o.ID,
		InputID:         o.InputID,
		Quantity:        o.QuantityOutput,
	}
}

// BatchCompensatedEvent is raised after a production batch was deleted and
// its withdrawals returned to their Inputs
type BatchCompensatedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID            `json:"batch_id"`
	OutputsRemoved int                  `json:"outputs_removed"`
	InputsRestored int                  `json:"inputs_restored"`
	AmountRestored valueobject.Quantity `json:"amount_restored"`
}

// NewBatchCompensatedEvent creates a new BatchCompensatedEvent
func NewBatchCompensatedEvent(batchID uuid.UUID, outputsRemoved, inputsRestored int, amount valueobject.Quantity) *BatchCompensatedEvent {
	return &BatchCompensatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCompensated, AggregateTypeProductionBatch, batchID),
		BatchID:         batchID,
		OutputsRemoved:  outputsRemoved,
		InputsRestored:  inputsRestored,
		AmountRestored:  amount,
	}
}
