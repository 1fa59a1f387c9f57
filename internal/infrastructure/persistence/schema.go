package persistence

import (
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// LedgerModels lists every table the ledger reads or writes, in dependency order
func LedgerModels() []interface{} {
	return []interface{}{
		&models.ClientModel{},
		&models.BullModel{},
		&models.InputModel{},
		&models.OutputModel{},
		&models.ProductionBatchModel{},
		&models.ProductionBatchOutputModel{},
		&models.OpusModel{},
	}
}

// AutoMigrateLedger creates the ledger tables from the GORM models.
// Production schemas are managed by the SQL migrations; this is used for
// SQLite test databases and local development.
func AutoMigrateLedger(db *gorm.DB) error {
	return db.AutoMigrate(LedgerModels()...)
}
