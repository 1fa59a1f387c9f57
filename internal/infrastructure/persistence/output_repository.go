package persistence

import (
	"context"
	"errors"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOutputRepository implements OutputRepository using GORM
type GormOutputRepository struct {
	db *gorm.DB
}

// NewGormOutputRepository creates a new GormOutputRepository
func NewGormOutputRepository(db *gorm.DB) *GormOutputRepository {
	return &GormOutputRepository{db: db}
}

// FindByID finds an Output by ID
func (r *GormOutputRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Output, error) {
	var model models.OutputModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NewNotFoundError("Output")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the Outputs with the given ids; missing ids are skipped
func (r *GormOutputRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Output, error) {
	if len(ids) == 0 {
		return []ledger.Output{}, nil
	}
	var rows []models.OutputModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return outputsToDomain(rows), nil
}

// FindByInput lists every Output of an Input, oldest first
func (r *GormOutputRepository) FindByInput(ctx context.Context, inputID uuid.UUID) ([]ledger.Output, error) {
	var rows []models.OutputModel
	if err := r.db.WithContext(ctx).
		Where("input_id = ?", inputID).
		Order("output_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return outputsToDomain(rows), nil
}

// SumByInput returns the total withdrawn from an Input
func (r *GormOutputRepository) SumByInput(ctx context.Context, inputID uuid.UUID) (valueobject.Quantity, error) {
	return r.sum(r.db.WithContext(ctx).Where("input_id = ?", inputID))
}

// SumByInputExcluding returns the total withdrawn from an Input by every Output except excludeID
func (r *GormOutputRepository) SumByInputExcluding(ctx context.Context, inputID, excludeID uuid.UUID) (valueobject.Quantity, error) {
	return r.sum(r.db.WithContext(ctx).Where("input_id = ? AND id <> ?", inputID, excludeID))
}

func (r *GormOutputRepository) sum(query *gorm.DB) (valueobject.Quantity, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := query.
		Model(&models.OutputModel{}).
		Select("COALESCE(SUM(quantity_output), 0) as total").
		Scan(&result).Error; err != nil {
		return valueobject.ZeroQuantity(), err
	}
	return valueobject.NewQuantity(result.Total)
}

// Create inserts a new Output
func (r *GormOutputRepository) Create(ctx context.Context, output *ledger.Output) error {
	return r.db.WithContext(ctx).Create(models.OutputModelFromDomain(output)).Error
}

// Save updates the mutable columns of an Output. input_id is never rewritten.
func (r *GormOutputRepository) Save(ctx context.Context, output *ledger.Output) error {
	result := r.db.WithContext(ctx).
		Model(&models.OutputModel{}).
		Where("id = ?", output.ID).
		Updates(map[string]interface{}{
			"output_date":     output.OutputDate,
			"quantity_output": output.QuantityOutput.Amount(),
			"remark":          output.Remark,
			"updated_at":      output.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.NewNotFoundError("Output")
	}
	return nil
}

// Delete removes an Output
func (r *GormOutputRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.OutputModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.NewNotFoundError("Output")
	}
	return nil
}

// DeleteByIDs removes several Outputs and reports how many rows went away
func (r *GormOutputRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.OutputModel{})
	return result.RowsAffected, result.Error
}

func outputsToDomain(rows []models.OutputModel) []ledger.Output {
	outputs := make([]ledger.Output, len(rows))
	for i := range rows {
		outputs[i] = *rows[i].ToDomain()
	}
	return outputs
}

// Ensure GormOutputRepository implements OutputRepository
var _ ledger.OutputRepository = (*GormOutputRepository)(nil)
