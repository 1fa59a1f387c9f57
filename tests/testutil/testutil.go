// Package testutil holds fixtures shared by the ledger's database and API tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Elevated returns an actor with laboratory staff privileges
func Elevated() ledger.Actor {
	return ledger.Actor{UserID: uuid.New(), Elevated: true}
}

// Client returns the actor of the client owning userID's samples
func Client(userID uuid.UUID) ledger.Actor {
	return ledger.Actor{UserID: userID}
}

// SeedClient inserts a client and returns its id, which doubles as the
// client's user id
func SeedClient(t *testing.T, db *gorm.DB, fullName string) uuid.UUID {
	t.Helper()
	now := time.Now()
	client := models.ClientModel{
		BaseModel:      models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		FullName:       fullName,
		DocumentNumber: "CC-" + uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&client).Error)
	return client.ID
}

// SeedBull inserts a bull owned by ownerID
func SeedBull(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	now := time.Now()
	bull := models.BullModel{
		BaseModel:          models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:             ownerID,
		Name:               name,
		RegistrationNumber: "REG-" + uuid.NewString()[:6],
	}
	require.NoError(t, db.Create(&bull).Error)
	return bull.ID
}

// Context returns a context cancelled when the test ends or timeout passes
func Context(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
