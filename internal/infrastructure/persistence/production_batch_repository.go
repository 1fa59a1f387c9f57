package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductionBatchRepository implements ProductionBatchRepository using GORM
type GormProductionBatchRepository struct {
	db *gorm.DB
}

// NewGormProductionBatchRepository creates a new GormProductionBatchRepository
func NewGormProductionBatchRepository(db *gorm.DB) *GormProductionBatchRepository {
	return &GormProductionBatchRepository{db: db}
}

// FindByID loads a batch and its associated output ids
func (r *GormProductionBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ProductionBatch, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the batch row for the rest of the transaction
func (r *GormProductionBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.ProductionBatch, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormProductionBatchRepository) find(ctx context.Context, query *gorm.DB, id uuid.UUID) (*ledger.ProductionBatch, error) {
	var model models.ProductionBatchModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NewNotFoundError("ProductionBatch")
		}
		return nil, err
	}
	outputIDs, err := r.outputIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return model.ToDomain(outputIDs[id]), nil
}

func (r *GormProductionBatchRepository) outputIDs(ctx context.Context, batchIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	var links []models.ProductionBatchOutputModel
	if err := r.db.WithContext(ctx).
		Where("production_batch_id IN ?", batchIDs).
		Order("created_at ASC, output_id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	byBatch := make(map[uuid.UUID][]uuid.UUID, len(batchIDs))
	for _, l := range links {
		byBatch[l.ProductionBatchID] = append(byBatch[l.ProductionBatchID], l.OutputID)
	}
	return byBatch, nil
}

// FindByClient lists a client's batches, newest OPU first
func (r *GormProductionBatchRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]ledger.ProductionBatch, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ProductionBatchModel{})
	if clientID != uuid.Nil {
		query = query.Where("client_id = ?", clientID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, ProductionBatchSortFields, "opu_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.ProductionBatchModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []ledger.ProductionBatch{}, total, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	outputIDs, err := r.outputIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	batches := make([]ledger.ProductionBatch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain(outputIDs[rows[i].ID])
	}
	return batches, total, nil
}

// FindOutputs loads the Outputs associated with a batch, ordered by id
func (r *GormProductionBatchRepository) FindOutputs(ctx context.Context, batchID uuid.UUID) ([]ledger.Output, error) {
	var rows []models.OutputModel
	if err := r.db.WithContext(ctx).
		Model(&models.OutputModel{}).
		Select("outputs.*").
		Joins("JOIN production_batch_outputs ON production_batch_outputs.output_id = outputs.id").
		Where("production_batch_outputs.production_batch_id = ?", batchID).
		Order("outputs.id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return outputsToDomain(rows), nil
}

// Create inserts a batch and its association rows
func (r *GormProductionBatchRepository) Create(ctx context.Context, batch *ledger.ProductionBatch) error {
	if err := r.db.WithContext(ctx).Create(models.ProductionBatchModelFromDomain(batch)).Error; err != nil {
		return err
	}
	return r.AttachOutputs(ctx, batch.ID, batch.OutputIDs)
}

// AttachOutputs links outputs to a batch. Existing links are left alone.
func (r *GormProductionBatchRepository) AttachOutputs(ctx context.Context, batchID uuid.UUID, outputIDs []uuid.UUID) error {
	if len(outputIDs) == 0 {
		return nil
	}
	now := time.Now()
	links := make([]models.ProductionBatchOutputModel, len(outputIDs))
	for i, id := range outputIDs {
		links[i] = models.ProductionBatchOutputModel{
			ProductionBatchID: batchID,
			OutputID:          id,
			CreatedAt:         now,
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

// DetachOutputs removes every association row that references the outputs
func (r *GormProductionBatchRepository) DetachOutputs(ctx context.Context, outputIDs []uuid.UUID) (int64, error) {
	if len(outputIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("output_id IN ?", outputIDs).
		Delete(&models.ProductionBatchOutputModel{})
	return result.RowsAffected, result.Error
}

// Delete removes the batch row
func (r *GormProductionBatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductionBatchModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.NewNotFoundError("ProductionBatch")
	}
	return nil
}

// CreateOpus inserts an Opus result row
func (r *GormProductionBatchRepository) CreateOpus(ctx context.Context, opus *ledger.Opus) error {
	return r.db.WithContext(ctx).Create(models.OpusModelFromDomain(opus)).Error
}

// FindOpus lists the Opus rows of a batch in insertion order
func (r *GormProductionBatchRepository) FindOpus(ctx context.Context, batchID uuid.UUID) ([]ledger.Opus, error) {
	var rows []models.OpusModel
	if err := r.db.WithContext(ctx).
		Where("production_batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]ledger.Opus, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, nil
}

// DeleteOpusByBatch removes every Opus row of a batch
func (r *GormProductionBatchRepository) DeleteOpusByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("production_batch_id = ?", batchID).
		Delete(&models.OpusModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormProductionBatchRepository implements ProductionBatchRepository
var _ ledger.ProductionBatchRepository = (*GormProductionBatchRepository)(nil)
