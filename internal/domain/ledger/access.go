package ledger

import "github.com/google/uuid"

// Actor is the authenticated caller of a ledger operation
type Actor struct {
	UserID uuid.UUID
	// Elevated actors (admins, veterinarians) may act on any client's samples
	Elevated bool
}

// SystemActor is used by background jobs such as reconciliation
var SystemActor = Actor{Elevated: true}

// Authorize is the single capability check for ledger mutations and reads:
// the owner of the samples or an elevated actor may proceed. A nil owner
// means the resource is not client-scoped and requires elevation.
func Authorize(actor Actor, ownerID uuid.UUID) error {
	if actor.Elevated {
		return nil
	}
	if ownerID != uuid.Nil && actor.UserID != uuid.Nil && actor.UserID == ownerID {
		return nil
	}
	return NewForbiddenError()
}

// RequireElevated fails unless the actor is elevated
func RequireElevated(actor Actor) error {
	return Authorize(actor, uuid.Nil)
}
