package ledger

import (
	"fmt"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
)

// NewNotFoundError reports a missing ledger resource
func NewNotFoundError(resource string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource)
}

// NewValidationError reports invalid request data for a field
func NewValidationError(field, message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, message).WithDetail("field", field)
}

// NewCapacityExceededError reports a withdrawal larger than the remaining material
func NewCapacityExceededError(requested, available valueobject.Quantity) *shared.DomainError {
	return shared.NewDomainError(
		shared.CodeCapacityExceeded,
		fmt.Sprintf("Requested %s exceeds available %s", requested, available),
	).WithDetail("requested", requested.String()).WithDetail("available", available.String())
}

// NewInvalidReductionError reports a received quantity below what was already consumed
func NewInvalidReductionError(requested, minimum valueobject.Quantity) *shared.DomainError {
	return shared.NewDomainError(
		shared.CodeInvalidReduction,
		fmt.Sprintf("Received quantity cannot be lower than the %s already consumed", minimum),
	).WithDetail("requested", requested.String()).WithDetail("minimum_received", minimum.String())
}

// NewInvalidStatusTransitionError reports a status change the ledger does not allow
func NewInvalidStatusTransitionError(from, to InputStatus, reason string) *shared.DomainError {
	return shared.NewDomainError(
		shared.CodeInvalidStatusTransition,
		fmt.Sprintf("Cannot change status from %s to %s: %s", from, to, reason),
	).WithDetail("from", string(from)).WithDetail("to", string(to))
}

// NewForbiddenError reports an actor acting on samples it does not own
func NewForbiddenError() *shared.DomainError {
	return shared.NewDomainError(shared.CodeForbidden, "Not allowed to modify samples of another client")
}

// NewConflictError reports that retries were exhausted on a contended input
func NewConflictError(attempts int) *shared.DomainError {
	return shared.NewDomainError(shared.CodeConflict, "Input was modified concurrently, please retry").
		WithDetail("attempts", fmt.Sprintf("%d", attempts))
}

// checkQuantity rejects amounts that are zero or beyond what storage holds.
// label starts the message, e.g. "Received".
func checkQuantity(field, label string, q valueobject.Quantity) error {
	if !q.IsPositive() {
		return NewValidationError(field, label+" quantity must be positive")
	}
	if q.ExceedsMax() {
		return NewValidationError(field, fmt.Sprintf("%s quantity cannot exceed %s", label, valueobject.MaxQuantity.StringFixed(valueobject.QuantityScale)))
	}
	return nil
}
