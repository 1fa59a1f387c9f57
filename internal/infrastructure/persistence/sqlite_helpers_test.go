package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens a private in-memory database with the ledger schema.
// A single connection serialises transactions the way row locks would.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrateLedger(db))
	return db
}

type seeded struct {
	ClientID uuid.UUID
	BullID   uuid.UUID
}

func seedBull(t *testing.T, db *gorm.DB, name string) seeded {
	t.Helper()
	now := time.Now()

	client := models.ClientModel{
		BaseModel:      models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		FullName:       "Hacienda " + name,
		DocumentNumber: "DOC-" + name,
		Email:          name + "@example.com",
	}
	require.NoError(t, db.Create(&client).Error)

	bull := models.BullModel{
		BaseModel:          models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:             client.ID,
		Name:               name,
		RegistrationNumber: "REG-" + name,
	}
	require.NoError(t, db.Create(&bull).Error)

	return seeded{ClientID: client.ID, BullID: bull.ID}
}

func seedInput(t *testing.T, db *gorm.DB, s seeded, received string) *ledger.Input {
	t.Helper()
	input, err := ledger.NewInput(s.BullID, s.ClientID, valueobject.MustQuantity(received), "L-1", "E-1", time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, NewGormInputRepository(db).Create(context.Background(), input))
	input.ClearDomainEvents()
	return input
}

func seedOutput(t *testing.T, db *gorm.DB, inputID uuid.UUID, qty string) *ledger.Output {
	t.Helper()
	output, err := ledger.NewOutput(inputID, valueobject.MustQuantity(qty), time.Now(), "")
	require.NoError(t, err)
	require.NoError(t, NewGormOutputRepository(db).Create(context.Background(), output))
	return output
}

func testIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}
