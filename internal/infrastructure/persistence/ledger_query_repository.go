package persistence

import (
	"context"
	"strings"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerQueryRepository serves the input and output listings. Rows are
// joined with their bull and client so a page renders in one query.
type GormLedgerQueryRepository struct {
	db *gorm.DB
}

// NewGormLedgerQueryRepository creates a new GormLedgerQueryRepository
func NewGormLedgerQueryRepository(db *gorm.DB) *GormLedgerQueryRepository {
	return &GormLedgerQueryRepository{db: db}
}

type inputRow struct {
	models.InputModel
	BullName           string
	RegistrationNumber string
	ClientName         string
	ClientDocument     string
}

type outputRow struct {
	models.OutputModel
	Lot                string
	Escalarilla        string
	BullID             uuid.UUID
	BullName           string
	RegistrationNumber string
	OwnerID            uuid.UUID
	ClientName         string
	ClientDocument     string
}

// SearchInputs returns one page of Inputs matching the search
func (r *GormLedgerQueryRepository) SearchInputs(ctx context.Context, search ledger.InputSearch) ([]ledger.InputView, int64, error) {
	filter := search.Filter.Normalize()

	query := r.db.WithContext(ctx).
		Table("inputs").
		Joins("LEFT JOIN bulls ON bulls.id = inputs.bull_id").
		Joins("LEFT JOIN clients ON clients.id = inputs.user_id")

	if search.Status != "" {
		query = query.Where("inputs.status = ?", string(search.Status))
	}
	if search.BullID != uuid.Nil {
		query = query.Where("inputs.bull_id = ?", search.BullID)
	}
	if search.OwnerID != uuid.Nil {
		query = query.Where("inputs.user_id = ?", search.OwnerID)
	}
	if search.DateFrom != nil {
		query = query.Where("inputs.expires_at >= ?", *search.DateFrom)
	}
	if search.DateTo != nil {
		query = query.Where("inputs.expires_at <= ?", *search.DateTo)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := r.likeOperator()
		pattern := "%" + term + "%"
		query = query.Where(matchAny(like, "clients.document_number", "clients.full_name",
			"bulls.name", "bulls.registration_number", "inputs.lot", "inputs.escalarilla"), repeat(pattern, 6)...)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, InputSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []inputRow
	if err := query.
		Select("inputs.*, bulls.name AS bull_name, bulls.registration_number AS registration_number, " +
			"clients.full_name AS client_name, clients.document_number AS client_document").
		Order("inputs." + sortField + " " + sortOrder).
		Order("inputs.id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	views := make([]ledger.InputView, len(rows))
	for i := range rows {
		views[i] = ledger.InputView{
			Input:              *rows[i].InputModel.ToDomain(),
			BullName:           rows[i].BullName,
			RegistrationNumber: rows[i].RegistrationNumber,
			ClientName:         rows[i].ClientName,
			ClientDocument:     rows[i].ClientDocument,
		}
	}
	return views, total, nil
}

// SearchOutputs returns one page of Outputs matching the search
func (r *GormLedgerQueryRepository) SearchOutputs(ctx context.Context, search ledger.OutputSearch) ([]ledger.OutputView, int64, error) {
	filter := search.Filter.Normalize()

	query := r.db.WithContext(ctx).
		Table("outputs").
		Joins("JOIN inputs ON inputs.id = outputs.input_id").
		Joins("LEFT JOIN bulls ON bulls.id = inputs.bull_id").
		Joins("LEFT JOIN clients ON clients.id = inputs.user_id")

	if search.InputID != uuid.Nil {
		query = query.Where("outputs.input_id = ?", search.InputID)
	}
	if search.OwnerID != uuid.Nil {
		query = query.Where("inputs.user_id = ?", search.OwnerID)
	}
	if search.DateFrom != nil {
		query = query.Where("outputs.output_date >= ?", *search.DateFrom)
	}
	if search.DateTo != nil {
		query = query.Where("outputs.output_date <= ?", *search.DateTo)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := r.likeOperator()
		pattern := "%" + term + "%"
		query = query.Where(matchAny(like, "inputs.lot", "inputs.escalarilla", "outputs.remark",
			"clients.full_name", "clients.document_number", "bulls.name", "bulls.registration_number"), repeat(pattern, 7)...)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, OutputSortFields, "output_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []outputRow
	if err := query.
		Select("outputs.*, inputs.lot AS lot, inputs.escalarilla AS escalarilla, inputs.bull_id AS bull_id, " +
			"bulls.name AS bull_name, bulls.registration_number AS registration_number, inputs.user_id AS owner_id, " +
			"clients.full_name AS client_name, clients.document_number AS client_document").
		Order("outputs." + sortField + " " + sortOrder).
		Order("outputs.id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	views := make([]ledger.OutputView, len(rows))
	for i := range rows {
		views[i] = ledger.OutputView{
			Output:             *rows[i].OutputModel.ToDomain(),
			Lot:                rows[i].Lot,
			Escalarilla:        rows[i].Escalarilla,
			BullID:             rows[i].BullID,
			BullName:           rows[i].BullName,
			RegistrationNumber: rows[i].RegistrationNumber,
			OwnerID:            rows[i].OwnerID,
			ClientName:         rows[i].ClientName,
			ClientDocument:     rows[i].ClientDocument,
		}
	}
	return views, total, nil
}

// matchAny builds "(a LIKE ? OR b LIKE ? ...)" over fixed column names
func matchAny(like string, columns ...string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " " + like + " ?"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func repeat(v interface{}, n int) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// likeOperator picks a case-insensitive match for the active dialect.
// SQLite LIKE already ignores ASCII case.
func (r *GormLedgerQueryRepository) likeOperator() string {
	if r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

// Ensure GormLedgerQueryRepository implements QueryRepository
var _ ledger.QueryRepository = (*GormLedgerQueryRepository)(nil)
