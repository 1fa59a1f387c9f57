package ledger

import (
	"strings"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DefaultLocation is stored when no lot or escalarilla is given
const DefaultLocation = "Sin asignar"

// Input is a lot of material received for a bull, owned by a client.
// It is the aggregate root of the sample ledger: QuantityTaken, Total and
// Status are derived from the Outputs drawn against it and are only
// changed through the methods below.
type Input struct {
	shared.BaseAggregateRoot
	BullID           uuid.UUID
	UserID           uuid.UUID // owning client
	Lot              string
	Escalarilla      string // straw ladder position in the tank
	ExpiresAt        time.Time
	QuantityReceived valueobject.Quantity
	QuantityTaken    valueobject.Quantity
	Total            valueobject.Quantity
	Status           InputStatus
}

// NewInput creates a pending Input with nothing consumed
func NewInput(bullID, ownerID uuid.UUID, received valueobject.Quantity, lot, escalarilla string, expiresAt time.Time) (*Input, error) {
	if bullID == uuid.Nil {
		return nil, NewValidationError("bull_id", "Bull ID cannot be empty")
	}
	if ownerID == uuid.Nil {
		return nil, NewValidationError("user_id", "Bull has no owning client")
	}
	if err := checkQuantity("quantity_received", "Received", received); err != nil {
		return nil, err
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now()
	}

	input := &Input{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BullID:            bullID,
		UserID:            ownerID,
		Lot:               locationOrDefault(lot),
		Escalarilla:       locationOrDefault(escalarilla),
		ExpiresAt:         expiresAt,
		QuantityReceived:  received,
		QuantityTaken:     valueobject.ZeroQuantity(),
		Total:             received,
		Status:            InputStatusPending,
	}

	input.AddDomainEvent(NewInputCreatedEvent(input))
	return input, nil
}

func locationOrDefault(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultLocation
	}
	return v
}

// IsCancelled reports whether the Input was explicitly cancelled
func (i *Input) IsCancelled() bool {
	return i.Status == InputStatusCancelled
}

// Available returns how much can still be withdrawn given the amount
// consumed by every other Output of this Input
func (i *Input) Available(consumedByOthers valueobject.Quantity) valueobject.Quantity {
	return i.QuantityReceived.SubFloorZero(consumedByOthers)
}

// CheckWithdrawal verifies that requested fits next to consumedByOthers
func (i *Input) CheckWithdrawal(requested, consumedByOthers valueobject.Quantity) error {
	if !requested.IsPositive() {
		return NewValidationError("quantity_output", "Output quantity must be positive")
	}
	if i.IsCancelled() {
		return NewInvalidStatusTransitionError(i.Status, InputStatusProcessing, "input is cancelled")
	}
	available := i.Available(consumedByOthers)
	if requested.GreaterThan(available) {
		return NewCapacityExceededError(requested, available)
	}
	return nil
}

// ApplyConsumption sets QuantityTaken to the re-derived sum of all Outputs
// and recomputes Total and Status.
func (i *Input) ApplyConsumption(consumed valueobject.Quantity) error {
	if consumed.GreaterThan(i.QuantityReceived) {
		return NewCapacityExceededError(consumed, i.QuantityReceived)
	}
	i.setTaken(consumed)
	return nil
}

func (i *Input) setTaken(taken valueobject.Quantity) {
	previous := i.QuantityTaken
	previousStatus := i.Status

	i.QuantityTaken = taken
	i.recompute()

	if previous.Equals(i.QuantityTaken) && previousStatus == i.Status {
		return
	}
	i.touch()
	i.AddDomainEvent(NewInputConsumptionChangedEvent(i, previous, previousStatus))
}

// ChangeReceived updates the received quantity. It may never drop below
// what has already been consumed.
func (i *Input) ChangeReceived(received valueobject.Quantity) error {
	if err := checkQuantity("quantity_received", "Received", received); err != nil {
		return err
	}
	if received.LessThan(i.QuantityTaken) {
		return NewInvalidReductionError(received, i.QuantityTaken)
	}
	if received.Equals(i.QuantityReceived) {
		return nil
	}

	previous := i.QuantityReceived
	i.QuantityReceived = received
	i.recompute()
	i.touch()
	i.AddDomainEvent(NewInputReceivedChangedEvent(i, previous))
	return nil
}

// UpdateDetails changes descriptive fields. Nil arguments are left untouched.
func (i *Input) UpdateDetails(lot, escalarilla *string, expiresAt *time.Time) {
	changed := false
	if lot != nil {
		i.Lot = locationOrDefault(*lot)
		changed = true
	}
	if escalarilla != nil {
		i.Escalarilla = locationOrDefault(*escalarilla)
		changed = true
	}
	if expiresAt != nil && !expiresAt.IsZero() {
		i.ExpiresAt = *expiresAt
		changed = true
	}
	if changed {
		i.touch()
	}
}

// ChangeStatus applies an explicit status request. Only cancellation of an
// untouched Input is allowed; every other status is derived.
func (i *Input) ChangeStatus(target InputStatus) error {
	if target != InputStatusCancelled {
		return NewInvalidStatusTransitionError(i.Status, target, "status is derived from consumption")
	}
	if i.IsCancelled() {
		return nil
	}
	if !i.QuantityTaken.IsZero() {
		return NewInvalidStatusTransitionError(i.Status, target, "material has already been withdrawn")
	}

	previous := i.Status
	i.Status = InputStatusCancelled
	i.touch()
	i.AddDomainEvent(NewInputCancelledEvent(i, previous))
	return nil
}

// MarkDeleted checks the Input can be removed given the quantity its
// Outputs still hold and records the deletion.
func (i *Input) MarkDeleted(consumed valueobject.Quantity) error {
	if consumed.IsPositive() {
		return NewValidationError("quantity_taken", "Cannot delete an input with recorded withdrawals")
	}
	i.AddDomainEvent(NewInputDeletedEvent(i))
	return nil
}

// Consistent reports whether the stored derived fields agree with received and taken
func (i *Input) Consistent() bool {
	if i.QuantityTaken.GreaterThan(i.QuantityReceived) {
		return false
	}
	expectedTotal := i.QuantityReceived.SubFloorZero(i.QuantityTaken)
	if !i.Total.Equals(expectedTotal) {
		return false
	}
	return i.IsCancelled() || i.Status == DeriveStatus(i.QuantityReceived, i.QuantityTaken)
}

// recompute refreshes Total and, unless cancelled, Status
func (i *Input) recompute() {
	i.Total = i.QuantityReceived.SubFloorZero(i.QuantityTaken)
	if !i.IsCancelled() {
		i.Status = DeriveStatus(i.QuantityReceived, i.QuantityTaken)
	}
}

func (i *Input) touch() {
	i.UpdatedAt = time.Now()
}
