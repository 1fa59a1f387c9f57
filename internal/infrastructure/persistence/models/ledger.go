package models

import (
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InputModel is the persistence model for the Input aggregate root.
type InputModel struct {
	AggregateModel
	BullID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Lot              string          `gorm:"type:varchar(100);not null"`
	Escalarilla      string          `gorm:"type:varchar(100);not null"`
	ExpiresAt        time.Time       `gorm:"not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	QuantityTaken    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total            decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName returns the table name for GORM
func (InputModel) TableName() string {
	return "inputs"
}

// ToDomain converts the persistence model to a domain Input.
func (m *InputModel) ToDomain() *ledger.Input {
	return &ledger.Input{
		BaseAggregateRoot: m.ToAggregateRoot(),
		BullID:            m.BullID,
		UserID:            m.UserID,
		Lot:               m.Lot,
		Escalarilla:       m.Escalarilla,
		ExpiresAt:         m.ExpiresAt,
		QuantityReceived:  toQuantity(m.QuantityReceived),
		QuantityTaken:     toQuantity(m.QuantityTaken),
		Total:             toQuantity(m.Total),
		Status:            ledger.InputStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain Input.
func (m *InputModel) FromDomain(i *ledger.Input) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.BullID = i.BullID
	m.UserID = i.UserID
	m.Lot = i.Lot
	m.Escalarilla = i.Escalarilla
	m.ExpiresAt = i.ExpiresAt
	m.QuantityReceived = i.QuantityReceived.Amount()
	m.QuantityTaken = i.QuantityTaken.Amount()
	m.Total = i.Total.Amount()
	m.Status = string(i.Status)
}

// InputModelFromDomain creates a new persistence model from a domain Input.
func InputModelFromDomain(i *ledger.Input) *InputModel {
	m := &InputModel{}
	m.FromDomain(i)
	return m
}

// OutputModel is the persistence model for an Output.
type OutputModel struct {
	BaseModel
	InputID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	OutputDate     time.Time       `gorm:"not null;index"`
	QuantityOutput decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Remark         string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OutputModel) TableName() string {
	return "outputs"
}

// ToDomain converts the persistence model to a domain Output.
func (m *OutputModel) ToDomain() *ledger.Output {
	return &ledger.Output{
		BaseEntity:     m.BaseModel.ToDomain(),
		InputID:        m.InputID,
		OutputDate:     m.OutputDate,
		QuantityOutput: toQuantity(m.QuantityOutput),
		Remark:         m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Output.
func (m *OutputModel) FromDomain(o *ledger.Output) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.InputID = o.InputID
	m.OutputDate = o.OutputDate
	m.QuantityOutput = o.QuantityOutput.Amount()
	m.Remark = o.Remark
}

// OutputModelFromDomain creates a new persistence model from a domain Output.
func OutputModelFromDomain(o *ledger.Output) *OutputModel {
	m := &OutputModel{}
	m.FromDomain(o)
	return m
}

// ProductionBatchModel is the persistence model for a production batch.
type ProductionBatchModel struct {
	BaseModel
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index"`
	OpuDate      time.Time `gorm:"not null;index"`
	Place        string    `gorm:"type:varchar(200);not null"`
	Farm         string    `gorm:"type:varchar(200);not null"`
	StartTime    string    `gorm:"type:varchar(5)"`
	EndTime      string    `gorm:"type:varchar(5)"`
	Container    string    `gorm:"type:varchar(100);not null"`
	TransferDate time.Time `gorm:"not null"`
	Notes        string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductionBatchModel) TableName() string {
	return "production_batches"
}

// ToDomain converts the persistence model to a domain ProductionBatch.
// Output ids are loaded separately from the association table.
func (m *ProductionBatchModel) ToDomain(outputIDs []uuid.UUID) *ledger.ProductionBatch {
	if outputIDs == nil {
		outputIDs = []uuid.UUID{}
	}
	return &ledger.ProductionBatch{
		BaseEntity:   m.BaseModel.ToDomain(),
		ClientID:     m.ClientID,
		OpuDate:      m.OpuDate,
		Place:        m.Place,
		Farm:         m.Farm,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Container:    m.Container,
		TransferDate: m.TransferDate,
		Notes:        m.Notes,
		OutputIDs:    outputIDs,
	}
}

// ProductionBatchModelFromDomain creates a new persistence model from a domain ProductionBatch.
func ProductionBatchModelFromDomain(b *ledger.ProductionBatch) *ProductionBatchModel {
	m := &ProductionBatchModel{
		ClientID:     b.ClientID,
		OpuDate:      b.OpuDate,
		Place:        b.Place,
		Farm:         b.Farm,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Container:    b.Container,
		TransferDate: b.TransferDate,
		Notes:        b.Notes,
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// ProductionBatchOutputModel is one row of the batch to output association.
type ProductionBatchOutputModel struct {
	ProductionBatchID uuid.UUID `gorm:"type:uuid;primaryKey"`
	OutputID          uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductionBatchOutputModel) TableName() string {
	return "production_batch_outputs"
}

// OpusModel is the persistence model for an Opus result row.
type OpusModel struct {
	BaseModel
	ProductionBatchID uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID          uuid.UUID `gorm:"type:uuid;not null;index"`
	BullID            uuid.UUID `gorm:"type:uuid;not null"`
	DonorCode         string    `gorm:"type:varchar(100);not null"`
	Race              string    `gorm:"type:varchar(100)"`
	Date              time.Time `gorm:"not null"`
	GradeI            int       `gorm:"not null;default:0"`
	GradeII           int       `gorm:"not null;default:0"`
	GradeIII          int       `gorm:"not null;default:0"`
	Viable            int       `gorm:"not null;default:0"`
	Others            int       `gorm:"not null;default:0"`
	TotalOocytes      int       `gorm:"not null;default:0"`
	Cleaved           int       `gorm:"not null;default:0"`
	TotalEmbryos      int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OpusModel) TableName() string {
	return "opus"
}

// ToDomain converts the persistence model to a domain Opus.
func (m *OpusModel) ToDomain() *ledger.Opus {
	return &ledger.Opus{
		BaseEntity:        m.BaseModel.ToDomain(),
		ProductionBatchID: m.ProductionBatchID,
		ClientID:          m.ClientID,
		BullID:            m.BullID,
		DonorCode:         m.DonorCode,
		Race:              m.Race,
		Date:              m.Date,
		GradeI:            m.GradeI,
		GradeII:           m.GradeII,
		GradeIII:          m.GradeIII,
		Viable:            m.Viable,
		Others:            m.Others,
		TotalOocytes:      m.TotalOocytes,
		Cleaved:           m.Cleaved,
		TotalEmbryos:      m.TotalEmbryos,
	}
}

// OpusModelFromDomain creates a new persistence model from a domain Opus.
func OpusModelFromDomain(o *ledger.Opus) *OpusModel {
	m := &OpusModel{
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
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}

// toQuantity converts a stored column into a Quantity. Columns carry a
// non-negative CHECK constraint, so a conversion failure maps to zero.
func toQuantity(d decimal.Decimal) valueobject.Quantity {
	q, err := valueobject.NewQuantity(d)
	if err != nil {
		return valueobject.ZeroQuantity()
	}
	return q
}
