package handler

import (
	"time"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOutputRequest represents a withdrawal from an input
//
//	@Description	Request body for recording a withdrawal
type CreateOutputRequest struct {
	QuantityOutput *decimal.Decimal `json:"quantity_output" binding:"required,quantity2dp" example:"2.50"`
	Remark         string           `json:"remark" binding:"max=500" example:"OPU session"`
	OutputDate     *time.Time       `json:"output_date" example:"2026-03-01T09:00:00Z"`
}

// UpdateOutputRequest represents an edit of a withdrawal
//
//	@Description	Omitted fields are left unchanged
type UpdateOutputRequest struct {
	QuantityOutput *decimal.Decimal `json:"quantity_output" binding:"omitempty,quantity2dp" example:"3.00"`
	Remark         *string          `json:"remark" binding:"omitempty,max=500"`
	OutputDate     *time.Time       `json:"output_date"`
}

// CreateInputRequest registers material received for a bull
//
//	@Description	Request body for registering an input
type CreateInputRequest struct {
	BullID           uuid.UUID        `json:"bull_id" binding:"required"`
	QuantityReceived *decimal.Decimal `json:"quantity_received" binding:"required,quantity2dp" example:"10.00"`
	QuantityTaken    *decimal.Decimal `json:"quantity_taken" binding:"omitempty,quantity2dp" example:"0"`
	Lot              string           `json:"lot" binding:"max=100" example:"L-2026-03"`
	Escalarilla      string           `json:"escalarilla" binding:"max=100" example:"E-4"`
	ExpiresAt        *time.Time       `json:"expires_at"`
}

// UpdateInputRequest edits an input
//
//	@Description	Omitted fields are left unchanged
type UpdateInputRequest struct {
	QuantityReceived *decimal.Decimal `json:"quantity_received" binding:"omitempty,quantity2dp" example:"12.00"`
	Lot              *string          `json:"lot" binding:"omitempty,max=100"`
	Escalarilla      *string          `json:"escalarilla" binding:"omitempty,max=100"`
	ExpiresAt        *time.Time       `json:"expires_at"`
}

// ChangeInputStatusRequest sets the status of an input
type ChangeInputStatusRequest struct {
	Status string `json:"status" binding:"required" example:"cancelled"`
}

// CreateProductionBatchRequest opens a production batch
type CreateProductionBatchRequest struct {
	ClientID  uuid.UUID   `json:"client_id" binding:"required"`
	OpuDate   string      `json:"opu_date" binding:"required,datetime=2006-01-02" example:"2026-03-01"`
	Place     string      `json:"place" binding:"max=200"`
	Farm      string      `json:"farm" binding:"max=200"`
	StartTime string      `json:"start_time" binding:"omitempty,datetime=15:04" example:"08:30"`
	EndTime   string      `json:"end_time" binding:"omitempty,datetime=15:04" example:"12:00"`
	Container string      `json:"container" binding:"max=100"`
	Notes     string      `json:"notes" binding:"max=2000"`
	OutputIDs []uuid.UUID `json:"output_ids"`
}

// AttachOutputsRequest links existing outputs to a batch
type AttachOutputsRequest struct {
	OutputIDs []uuid.UUID `json:"output_ids" binding:"required,min=1"`
}

// AddOpusRequest records the result of one donor
type AddOpusRequest struct {
	BullID       uuid.UUID  `json:"bull_id" binding:"required"`
	DonorCode    string     `json:"donor_code" binding:"required,max=100"`
	Race         string     `json:"race" binding:"max=100"`
	Date         *time.Time `json:"date"`
	GradeI       int        `json:"grade_i" binding:"gte=0"`
	GradeII      int        `json:"grade_ii" binding:"gte=0"`
	GradeIII     int        `json:"grade_iii" binding:"gte=0"`
	Viable       int        `json:"viable" binding:"gte=0"`
	Others       int        `json:"others" binding:"gte=0"`
	TotalOocytes int        `json:"total_oocytes" binding:"gte=0"`
	Cleaved      int        `json:"cleaved" binding:"gte=0"`
	TotalEmbryos int        `json:"total_embryos" binding:"gte=0"`
}

// InputSearchRequest holds the query of GET /inputs
type InputSearchRequest struct {
	dto.ListRequest
	dto.DateRangeRequest
	Status  string `form:"status"`
	BullID  string `form:"bull_id" binding:"omitempty,uuid"`
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
}

// OutputSearchRequest holds the query of GET /outputs
type OutputSearchRequest struct {
	dto.ListRequest
	dto.DateRangeRequest
	InputID string `form:"input_id" binding:"omitempty,uuid"`
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
}

// BatchListRequest holds the query of GET /production-batches
type BatchListRequest struct {
	dto.ListRequest
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}

// toQuantity converts a bound decimal. The binding rule already rejected
// negatives and extra fraction digits.
func toQuantity(field string, d *decimal.Decimal) (valueobject.Quantity, error) {
	if d == nil {
		return valueobject.ZeroQuantity(), nil
	}
	q, err := valueobject.NewQuantity(*d)
	if err != nil {
		return valueobject.Quantity{}, ledger.NewValidationError(field, err.Error())
	}
	return q, nil
}

func toOptionalQuantity(field string, d *decimal.Decimal) (*valueobject.Quantity, error) {
	if d == nil {
		return nil, nil
	}
	q, err := toQuantity(field, d)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r CreateOutputRequest) toApp() (appledger.CreateOutputRequest, error) {
	q, err := toQuantity("quantity_output", r.QuantityOutput)
	if err != nil {
		return appledger.CreateOutputRequest{}, err
	}
	return appledger.CreateOutputRequest{
		QuantityOutput: q,
		Remark:         r.Remark,
		OutputDate:     r.OutputDate,
	}, nil
}

func (r UpdateOutputRequest) toApp() (appledger.UpdateOutputRequest, error) {
	q, err := toOptionalQuantity("quantity_output", r.QuantityOutput)
	if err != nil {
		return appledger.UpdateOutputRequest{}, err
	}
	return appledger.UpdateOutputRequest{
		QuantityOutput: q,
		Remark:         r.Remark,
		OutputDate:     r.OutputDate,
	}, nil
}

func (r CreateInputRequest) toApp() (appledger.CreateInputRequest, error) {
	received, err := toQuantity("quantity_received", r.QuantityReceived)
	if err != nil {
		return appledger.CreateInputRequest{}, err
	}
	taken, err := toQuantity("quantity_taken", r.QuantityTaken)
	if err != nil {
		return appledger.CreateInputRequest{}, err
	}
	return appledger.CreateInputRequest{
		BullID:           r.BullID,
		QuantityReceived: received,
		QuantityTaken:    taken,
		Lot:              r.Lot,
		Escalarilla:      r.Escalarilla,
		ExpiresAt:        r.ExpiresAt,
	}, nil
}

func (r UpdateInputRequest) toApp() (appledger.UpdateInputRequest, error) {
	received, err := toOptionalQuantity("quantity_received", r.QuantityReceived)
	if err != nil {
		return appledger.UpdateInputRequest{}, err
	}
	return appledger.UpdateInputRequest{
		QuantityReceived: received,
		Lot:              r.Lot,
		Escalarilla:      r.Escalarilla,
		ExpiresAt:        r.ExpiresAt,
	}, nil
}

func (r CreateProductionBatchRequest) toApp() (appledger.CreateProductionBatchRequest, error) {
	opuDate, err := time.Parse(time.DateOnly, r.OpuDate)
	if err != nil {
		return appledger.CreateProductionBatchRequest{}, ledger.NewValidationError("opu_date", "must be a date formatted as 2006-01-02")
	}
	return appledger.CreateProductionBatchRequest{
		ClientID:  r.ClientID,
		OpuDate:   opuDate,
		Place:     r.Place,
		Farm:      r.Farm,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Container: r.Container,
		Notes:     r.Notes,
		OutputIDs: r.OutputIDs,
	}, nil
}

func (r AddOpusRequest) toApp() appledger.AddOpusRequest {
	return appledger.AddOpusRequest{
		BullID:    r.BullID,
		DonorCode: r.DonorCode,
		Race:      r.Race,
		Date:      r.Date,
		Counts: ledger.OpusCounts{
			GradeI:       r.GradeI,
			GradeII:      r.GradeII,
			GradeIII:     r.GradeIII,
			Viable:       r.Viable,
			Others:       r.Others,
			TotalOocytes: r.TotalOocytes,
			Cleaved:      r.Cleaved,
			TotalEmbryos: r.TotalEmbryos,
		},
	}
}

func (r InputSearchRequest) toSearch() (ledger.InputSearch, error) {
	search := ledger.InputSearch{Filter: r.ToFilter()}
	search.DateFrom, search.DateTo = r.Range()
	if r.Status != "" {
		status, ok := ledger.ParseInputStatus(r.Status)
		if !ok {
			return ledger.InputSearch{}, ledger.NewValidationError("status", "unknown status "+r.Status)
		}
		search.Status = status
	}
	// both ids were checked by the uuid binding rule
	if r.BullID != "" {
		search.BullID = uuid.MustParse(r.BullID)
	}
	if r.OwnerID != "" {
		search.OwnerID = uuid.MustParse(r.OwnerID)
	}
	return search, nil
}

func (r OutputSearchRequest) toSearch() ledger.OutputSearch {
	search := ledger.OutputSearch{Filter: r.ToFilter()}
	search.DateFrom, search.DateTo = r.Range()
	if r.InputID != "" {
		search.InputID = uuid.MustParse(r.InputID)
	}
	if r.OwnerID != "" {
		search.OwnerID = uuid.MustParse(r.OwnerID)
	}
	return search
}
