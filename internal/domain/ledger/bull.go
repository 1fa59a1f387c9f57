package ledger

import "github.com/google/uuid"

// Bull is the read model of a registered bull; the ledger only needs its owner
type Bull struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Name               string
	RegistrationNumber string
}

// Client is the read model of the laboratory client owning samples
type Client struct {
	ID             uuid.UUID
	FullName       string
	DocumentNumber string
	Email          string
}
