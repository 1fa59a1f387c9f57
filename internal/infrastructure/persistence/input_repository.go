package persistence

import (
	"context"
	"errors"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInputRepository implements InputRepository using GORM
type GormInputRepository struct {
	db *gorm.DB
}

// NewGormInputRepository creates a new GormInputRepository
func NewGormInputRepository(db *gorm.DB) *GormInputRepository {
	return &GormInputRepository{db: db}
}

// FindByID finds an Input by ID
func (r *GormInputRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Input, error) {
	var model models.InputModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NewNotFoundError("Input")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an Input and takes a row lock (SELECT ... FOR UPDATE).
// Must be called inside a transaction for the lock to be held.
func (r *GormInputRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Input, error) {
	var model models.InputModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NewNotFoundError("Input")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate locks the Inputs one by one in ascending id order so
// that two writers touching overlapping sets can never deadlock.
func (r *GormInputRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]ledger.Input, error) {
	sorted := ledger.SortIDs(ids)
	inputs := make([]ledger.Input, 0, len(sorted))
	var last uuid.UUID
	for i, id := range sorted {
		if i > 0 && id == last {
			continue
		}
		last = id
		input, err := r.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, *input)
	}
	return inputs, nil
}

// ListIDs returns every Input id in ascending order
func (r *GormInputRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InputModel{}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts a new Input
func (r *GormInputRepository) Create(ctx context.Context, input *ledger.Input) error {
	return r.db.WithContext(ctx).Create(models.InputModelFromDomain(input)).Error
}

// SaveWithLock updates the Input only if the stored version still matches
// and bumps it. On success the in-memory version is advanced as well.
func (r *GormInputRepository) SaveWithLock(ctx context.Context, input *ledger.Input) error {
	result := r.db.WithContext(ctx).
		Model(&models.InputModel{}).
		Where("id = ? AND version = ?", input.ID, input.Version).
		Updates(map[string]interface{}{
			"lot":               input.Lot,
			"escalarilla":       input.Escalarilla,
			"expires_at":        input.ExpiresAt,
			"quantity_received": input.QuantityReceived.Amount(),
			"quantity_taken":    input.QuantityTaken.Amount(),
			"total":             input.Total.Amount(),
			"status":            string(input.Status),
			"version":           input.Version + 1,
			"updated_at":        input.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed, "Input was modified by another transaction")
	}
	input.IncrementVersion()
	return nil
}

// Delete removes an Input. Outputs referencing it block the delete at the
// foreign key, so callers check consumption under the row lock first.
func (r *GormInputRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InputModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.NewNotFoundError("Input")
	}
	return nil
}

// Ensure GormInputRepository implements InputRepository
var _ ledger.InputRepository = (*GormInputRepository)(nil)
