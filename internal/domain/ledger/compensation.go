package ledger

import (
	"bytes"
	"sort"

	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CompensationPlan lists what deleting a production batch has to undo
type CompensationPlan struct {
	BatchID   uuid.UUID
	OutputIDs []uuid.UUID
	// Restores is sorted by InputID so row locks are always taken in the same order
	Restores []InputRestore
}

// InputRestore is the amount to give back to one Input
type InputRestore struct {
	InputID uuid.UUID
	Amount  valueobject.Quantity
	Outputs int
}

// PlanCompensation groups the batch's Outputs by Input
func PlanCompensation(batchID uuid.UUID, outputs []Output) CompensationPlan {
	plan := CompensationPlan{
		BatchID:   batchID,
		OutputIDs: make([]uuid.UUID, 0, len(outputs)),
	}

	byInput := make(map[uuid.UUID]*InputRestore)
	for _, o := range outputs {
		plan.OutputIDs = append(plan.OutputIDs, o.ID)
		r, ok := byInput[o.InputID]
		if !ok {
			r = &InputRestore{InputID: o.InputID, Amount: valueobject.ZeroQuantity()}
			byInput[o.InputID] = r
		}
		r.Amount = r.Amount.Add(o.QuantityOutput)
		r.Outputs++
	}

	plan.Restores = make([]InputRestore, 0, len(byInput))
	for _, r := range byInput {
		plan.Restores = append(plan.Restores, *r)
	}
	sort.Slice(plan.Restores, func(a, b int) bool {
		return bytes.Compare(plan.Restores[a].InputID[:], plan.Restores[b].InputID[:]) < 0
	})
	return plan
}

// InputIDs returns the affected Input ids in lock order
func (p CompensationPlan) InputIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Restores))
	for i, r := range p.Restores {
		ids[i] = r.InputID
	}
	return ids
}

// TotalRestored is the sum of every restore amount
func (p CompensationPlan) TotalRestored() valueobject.Quantity {
	total := valueobject.ZeroQuantity()
	for _, r := range p.Restores {
		total = total.Add(r.Amount)
	}
	return total
}

// SortIDs orders ids the same way row locks are acquired
func SortIDs(ids []uuid.UUID) []uuid.UUID {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(a, b int) bool {
		return bytes.Compare(sorted[a][:], sorted[b][:]) < 0
	})
	return sorted
}
