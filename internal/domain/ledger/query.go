package ledger

import (
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InputSearch filters the input listing
type InputSearch struct {
	shared.Filter
	Status   InputStatus
	BullID   uuid.UUID
	OwnerID  uuid.UUID // uuid.Nil means every owner
	DateFrom *time.Time
	DateTo   *time.Time
}

// OutputSearch filters the output listing
type OutputSearch struct {
	shared.Filter
	InputID  uuid.UUID
	OwnerID  uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

// InputView is an Input joined with its bull and client context
type InputView struct {
	Input
	BullName           string
	RegistrationNumber string
	ClientName         string
	ClientDocument     string
}

// OutputView is an Output joined with its Input, bull and client context
type OutputView struct {
	Output
	Lot                string
	Escalarilla        string
	BullID             uuid.UUID
	BullName           string
	RegistrationNumber string
	OwnerID            uuid.UUID
	ClientName         string
	ClientDocument     string
}
