package ledger

import (
	"strings"

	"github.com/genlab/backend/internal/domain/shared/valueobject"
)

// InputStatus is the lifecycle state of an Input
type InputStatus string

const (
	InputStatusPending    InputStatus = "pending"
	InputStatusProcessing InputStatus = "processing"
	InputStatusCompleted  InputStatus = "completed"
	InputStatusCancelled  InputStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses
func (s InputStatus) IsValid() bool {
	switch s {
	case InputStatusPending, InputStatusProcessing, InputStatusCompleted, InputStatusCancelled:
		return true
	}
	return false
}

// ParseInputStatus parses a status case-insensitively
func ParseInputStatus(raw string) (InputStatus, bool) {
	s := InputStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// DeriveStatus computes the consumption status from received and taken.
// Cancelled is never derived; it is only set explicitly.
func DeriveStatus(received, taken valueobject.Quantity) InputStatus {
	switch {
	case taken.IsZero():
		return InputStatusPending
	case taken.GreaterThanOrEqual(received):
		return InputStatusCompleted
	default:
		return InputStatusProcessing
	}
}
