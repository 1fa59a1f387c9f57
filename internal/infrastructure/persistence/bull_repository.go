package persistence

import (
	"context"
	"errors"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBullRepository reads bulls using GORM
type GormBullRepository struct {
	db *gorm.DB
}

// NewGormBullRepository creates a new GormBullRepository
func NewGormBullRepository(db *gorm.DB) *GormBullRepository {
	return &GormBullRepository{db: db}
}

// FindByID finds a bull by ID
func (r *GormBullRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Bull, error) {
	var model models.BullModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NewNotFoundError("Bull")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormBullRepository implements BullRepository
var _ ledger.BullRepository = (*GormBullRepository)(nil)
