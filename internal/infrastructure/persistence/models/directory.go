package models

import (
	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/google/uuid"
)

// BullModel is the read model of the bulls table. Bulls are registered by
// the directory module; the ledger only reads ownership and display fields.
type BullModel struct {
	BaseModel
	UserID             uuid.UUID `gorm:"type:uuid;not null;index"`
	Name               string    `gorm:"type:varchar(200);not null"`
	RegistrationNumber string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (BullModel) TableName() string {
	return "bulls"
}

// ToDomain converts the persistence model to a domain Bull.
func (m *BullModel) ToDomain() *ledger.Bull {
	return &ledger.Bull{
		ID:                 m.ID,
		UserID:             m.UserID,
		Name:               m.Name,
		RegistrationNumber: m.RegistrationNumber,
	}
}

// ClientModel is the read model of the clients table. A client id equals
// the id of the user account that owns the samples.
type ClientModel struct {
	BaseModel
	FullName       string `gorm:"type:varchar(200);not null"`
	DocumentNumber string `gorm:"type:varchar(50)"`
	Email          string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *ledger.Client {
	return &ledger.Client{
		ID:             m.ID,
		FullName:       m.FullName,
		DocumentNumber: m.DocumentNumber,
		Email:          m.Email,
	}
}
