package ledger

import (
	"strings"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OpeningBalanceRemark marks the Output that records material already
// consumed when an Input is registered
const OpeningBalanceRemark = "Saldo inicial"

// Output is a single withdrawal of material from an Input.
// InputID never changes after creation.
type Output struct {
	shared.BaseEntity
	InputID        uuid.UUID
	OutputDate     time.Time
	QuantityOutput valueobject.Quantity
	Remark         string
}

// NewOutput creates a withdrawal against an Input
func NewOutput(inputID uuid.UUID, quantity valueobject.Quantity, outputDate time.Time, remark string) (*Output, error) {
	if inputID == uuid.Nil {
		return nil, NewValidationError("input_id", "Input ID cannot be empty")
	}
	if err := checkQuantity("quantity_output", "Output", quantity); err != nil {
		return nil, err
	}
	if outputDate.IsZero() {
		outputDate = time.Now()
	}
	return &Output{
		BaseEntity:     shared.NewBaseEntity(),
		InputID:        inputID,
		OutputDate:     outputDate,
		QuantityOutput: quantity,
		Remark:         strings.TrimSpace(remark),
	}, nil
}

// ChangeQuantity replaces the withdrawn quantity
func (o *Output) ChangeQuantity(quantity valueobject.Quantity) error {
	if err := checkQuantity("quantity_output", "Output", quantity); err != nil {
		return err
	}
	o.QuantityOutput = quantity
	o.UpdatedAt = time.Now()
	return nil
}

// UpdateDetails changes remark and date. Nil arguments are left untouched.
func (o *Output) UpdateDetails(remark *string, outputDate *time.Time) {
	if remark != nil {
		o.Remark = strings.TrimSpace(*remark)
	}
	if outputDate != nil && !outputDate.IsZero() {
		o.OutputDate = *outputDate
	}
	o.UpdatedAt = time.Now()
}

// SumOutputs adds up the withdrawn quantities
func SumOutputs(outputs []Output) valueobject.Quantity {
	total := valueobject.ZeroQuantity()
	for _, o := range outputs {
		total = total.Add(o.QuantityOutput)
	}
	return total
}
