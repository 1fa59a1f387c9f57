package ledger

import (
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOutputRequest records a withdrawal against an Input
type CreateOutputRequest struct {
	QuantityOutput valueobject.Quantity
	Remark         string
	OutputDate     *time.Time // defaults to now
}

// UpdateOutputRequest edits a withdrawal. Nil fields are left unchanged.
type UpdateOutputRequest struct {
	QuantityOutput *valueobject.Quantity
	Remark         *string
	OutputDate     *time.Time
}

// CreateInputRequest registers material received for a bull
type CreateInputRequest struct {
	BullID           uuid.UUID
	QuantityReceived valueobject.Quantity
	// QuantityTaken is material already used before registration; it is
	// stored as an opening Output
	QuantityTaken valueobject.Quantity
	Lot           string
	Escalarilla   string
	ExpiresAt     *time.Time
}

// UpdateInputRequest edits an Input. Nil fields are left unchanged.
type UpdateInputRequest struct {
	QuantityReceived *valueobject.Quantity
	Lot              *string
	Escalarilla      *string
	ExpiresAt        *time.Time
}

// CreateProductionBatchRequest opens a production batch for a client
type CreateProductionBatchRequest struct {
	ClientID  uuid.UUID
	OpuDate   time.Time
	Place     string
	Farm      string
	StartTime string
	EndTime   string
	Container string
	Notes     string
	OutputIDs []uuid.UUID
}

// AddOpusRequest records the per-donor result of a batch
type AddOpusRequest struct {
	BullID    uuid.UUID
	DonorCode string
	Race      string
	Date      *time.Time
	Counts    ledger.OpusCounts
}

// InputResponse represents an Input in API responses
type InputResponse struct {
	ID                 uuid.UUID            `json:"id"`
	BullID             uuid.UUID            `json:"bull_id"`
	UserID             uuid.UUID            `json:"user_id"`
	Lot                string               `json:"lot"`
	Escalarilla        string               `json:"escalarilla"`
	ExpiresAt          time.Time            `json:"expires_at"`
	QuantityReceived   valueobject.Quantity `json:"quantity_received"`
	QuantityTaken      valueobject.Quantity `json:"quantity_taken"`
	Total              valueobject.Quantity `json:"total"`
	Status             string               `json:"status"`
	Version            int                  `json:"version"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	BullName           string               `json:"bull_name,omitempty"`
	RegistrationNumber string               `json:"registration_number,omitempty"`
	ClientName         string               `json:"client_name,omitempty"`
	ClientDocument     string               `json:"client_document,omitempty"`
}

// ToInputResponse converts a domain Input to a response
func ToInputResponse(i *ledger.Input) InputResponse {
	return InputResponse{
		ID:               i.ID,
		BullID:           i.BullID,
		UserID:           i.UserID,
		Lot:              i.Lot,
		Escalarilla:      i.Escalarilla,
		ExpiresAt:        i.ExpiresAt,
		QuantityReceived: i.QuantityReceived,
		QuantityTaken:    i.QuantityTaken,
		Total:            i.Total,
		Status:           string(i.Status),
		Version:          i.Version,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

func toInputViewResponse(v ledger.InputView) InputResponse {
	r := ToInputResponse(&v.Input)
	r.BullName = v.BullName
	r.RegistrationNumber = v.RegistrationNumber
	r.ClientName = v.ClientName
	r.ClientDocument = v.ClientDocument
	return r
}

// OutputResponse represents an Output in API responses
type OutputResponse struct {
	ID                 uuid.UUID            `json:"id"`
	InputID            uuid.UUID            `json:"input_id"`
	OutputDate         time.Time            `json:"output_date"`
	QuantityOutput     valueobject.Quantity `json:"quantity_output"`
	Remark             string               `json:"remark"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	Lot                string               `json:"lot,omitempty"`
	Escalarilla        string               `json:"escalarilla,omitempty"`
	BullID             *uuid.UUID           `json:"bull_id,omitempty"`
	BullName           string               `json:"bull_name,omitempty"`
	RegistrationNumber string               `json:"registration_number,omitempty"`
	OwnerID            *uuid.UUID           `json:"owner_id,omitempty"`
	ClientName         string               `json:"client_name,omitempty"`
	ClientDocument     string               `json:"client_document,omitempty"`
}

// ToOutputResponse converts a domain Output to a response
func ToOutputResponse(o *ledger.Output) OutputResponse {
	return OutputResponse{
		ID:             o.ID,
		InputID:        o.InputID,
		OutputDate:     o.OutputDate,
		QuantityOutput: o.QuantityOutput,
		Remark:         o.Remark,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOutputViewResponse(v ledger.OutputView) OutputResponse {
	r := ToOutputResponse(&v.Output)
	bullID, ownerID := v.BullID, v.OwnerID
	r.Lot = v.Lot
	r.Escalarilla = v.Escalarilla
	r.BullID = &bullID
	r.BullName = v.BullName
	r.RegistrationNumber = v.RegistrationNumber
	r.OwnerID = &ownerID
	r.ClientName = v.ClientName
	r.ClientDocument = v.ClientDocument
	return r
}

func toOutputResponses(outputs []ledger.Output) []OutputResponse {
	result := make([]OutputResponse, len(outputs))
	for i := range outputs {
		result[i] = ToOutputResponse(&outputs[i])
	}
	return result
}

// OpusResponse represents an Opus result row
type OpusResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductionBatchID uuid.UUID       `json:"production_batch_id"`
	ClientID          uuid.UUID       `json:"client_id"`
	BullID            uuid.UUID       `json:"bull_id"`
	DonorCode         string          `json:"donor_code"`
	Race              string          `json:"race"`
	Date              time.Time       `json:"date"`
	GradeI            int             `json:"grade_i"`
	GradeII           int             `json:"grade_ii"`
	GradeIII          int             `json:"grade_iii"`
	Viable            int             `json:"viable"`
	Others            int             `json:"others"`
	TotalOocytes      int             `json:"total_oocytes"`
	Cleaved           int             `json:"cleaved"`
	TotalEmbryos      int             `json:"total_embryos"`
	CleavageRate      decimal.Decimal `json:"cleavage_rate"`
	EmbryoRate        decimal.Decimal `json:"embryo_rate"`
}

// ToOpusResponse converts a domain Opus to a response
func ToOpusResponse(o *ledger.Opus) OpusResponse {
	return OpusResponse{
		ID:                o.ID,
		ProductionBatchID: o.ProductionBatchID,
		ClientID:          o.ClientID,
		BullID:            o.BullID,
		DonorCode:         o.DonorCode,
		Race:              o.Race,
		Date:              o.Date,
		GradeI:            o.GradeI,
		GradeII:           o.GradeII,
		GradeIII:          o.GradeIII,
		Viable:            o.Viable,
		Others:            o.Others,
		TotalOocytes:      o.TotalOocytes,
		Cleaved:           o.Cleaved,
		TotalEmbryos:      o.TotalEmbryos,
		CleavageRate:      o.CleavageRate(),
		EmbryoRate:        o.EmbryoRate(),
	}
}

// ProductionBatchResponse represents a production batch in API responses
type ProductionBatchResponse struct {
	ID           uuid.UUID        `json:"id"`
	ClientID     uuid.UUID        `json:"client_id"`
	OpuDate      time.Time        `json:"opu_date"`
	Place        string           `json:"place"`
	Farm         string           `json:"farm"`
	StartTime    string           `json:"start_time,omitempty"`
	EndTime      string           `json:"end_time,omitempty"`
	Container    string           `json:"container"`
	TransferDate time.Time        `json:"transfer_date"`
	Notes        string           `json:"notes,omitempty"`
	OutputIDs    []uuid.UUID      `json:"output_ids"`
	Outputs      []OutputResponse `json:"outputs,omitempty"`
	Opus         []OpusResponse   `json:"opus,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ToProductionBatchResponse converts a domain ProductionBatch to a response
func ToProductionBatchResponse(b *ledger.ProductionBatch) ProductionBatchResponse {
	return ProductionBatchResponse{
		ID:           b.ID,
		ClientID:     b.ClientID,
		OpuDate:      b.OpuDate,
		Place:        b.Place,
		Farm:         b.Farm,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Container:    b.Container,
		TransferDate: b.TransferDate,
		Notes:        b.Notes,
		OutputIDs:    b.OutputIDs,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// InputRestoreResult describes what compensation did to one Input
type InputRestoreResult struct {
	InputID      uuid.UUID            `json:"input_id"`
	Outputs      int                  `json:"outputs"`
	Restored     valueobject.Quantity `json:"restored"`
	TakenBefore  valueobject.Quantity `json:"taken_before"`
	TakenAfter   valueobject.Quantity `json:"taken_after"`
	StatusBefore string               `json:"status_before"`
	StatusAfter  string               `json:"status_after"`
}

// CompensationReport summarises the deletion of a production batch
type CompensationReport struct {
	BatchID             uuid.UUID            `json:"batch_id"`
	OutputsRemoved      int                  `json:"outputs_removed"`
	InputsRestored      int                  `json:"inputs_restored"`
	AmountRestored      valueobject.Quantity `json:"amount_restored"`
	AssociationsRemoved int64                `json:"associations_removed"`
	OpusRemoved         int64                `json:"opus_removed"`
	Inputs              []InputRestoreResult `json:"inputs"`
}

// ReconcileResult describes the drift check of one Input
type ReconcileResult struct {
	InputID      uuid.UUID            `json:"input_id"`
	Drifted      bool                 `json:"drifted"`
	Repaired     bool                 `json:"repaired"`
	Overdrawn    bool                 `json:"overdrawn"`
	Consumed     valueobject.Quantity `json:"consumed"`
	TakenBefore  valueobject.Quantity `json:"taken_before"`
	TakenAfter   valueobject.Quantity `json:"taken_after"`
	StatusBefore string               `json:"status_before"`
	StatusAfter  string               `json:"status_after"`
}

// ReconcileSummary aggregates a full reconciliation pass
type ReconcileSummary struct {
	Checked   int `json:"checked"`
	Repaired  int `json:"repaired"`
	Overdrawn int `json:"overdrawn"`
	Failed    int `json:"failed"`
}
