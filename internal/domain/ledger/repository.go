package ledger

import (
	"context"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InputRepository defines the interface for Input persistence
type InputRepository interface {
	// FindByID finds an Input by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Input, error)

	// FindByIDForUpdate loads an Input and holds its row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Input, error)

	// FindByIDsForUpdate locks several Inputs in ascending id order
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Input, error)

	// ListIDs returns every Input id in ascending order
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Create inserts a new Input
	Create(ctx context.Context, input *Input) error

	// SaveWithLock updates an Input if its version is unchanged and bumps the version.
	// Returns an OPTIMISTIC_LOCK_FAILED error when another writer got there first.
	SaveWithLock(ctx context.Context, input *Input) error

	// Delete removes an Input. Returns NOT_FOUND when no row matched.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutputRepository defines the interface for Output persistence
type OutputRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Output, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Output, error)
	FindByInput(ctx context.Context, inputID uuid.UUID) ([]Output, error)

	// SumByInput re-derives the consumed quantity of an Input from its Outputs
	SumByInput(ctx context.Context, inputID uuid.UUID) (valueobject.Quantity, error)

	// SumByInputExcluding sums every Output of an Input except one
	SumByInputExcluding(ctx context.Context, inputID, excludeID uuid.UUID) (valueobject.Quantity, error)

	Create(ctx context.Context, output *Output) error
	Save(ctx context.Context, output *Output) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ProductionBatchRepository defines the interface for production batch persistence
type ProductionBatchRepository interface {
	// FindByID loads a batch together with its output ids
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)

	// FindByIDForUpdate locks the batch row
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)

	// FindByClient lists a client's batches, newest OPU first
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]ProductionBatch, int64, error)

	// FindOutputs loads the Outputs associated with a batch
	FindOutputs(ctx context.Context, batchID uuid.UUID) ([]Output, error)

	Create(ctx context.Context, batch *ProductionBatch) error
	AttachOutputs(ctx context.Context, batchID uuid.UUID, outputIDs []uuid.UUID) error

	// DetachOutputs removes association rows for the outputs from every batch
	DetachOutputs(ctx context.Context, outputIDs []uuid.UUID) (int64, error)

	Delete(ctx context.Context, id uuid.UUID) error

	CreateOpus(ctx context.Context, opus *Opus) error
	FindOpus(ctx context.Context, batchID uuid.UUID) ([]Opus, error)
	DeleteOpusByBatch(ctx context.Context, batchID uuid.UUID) (int64, error)
}

// BullRepository reads bull ownership
type BullRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Bull, error)
}

// QueryRepository serves the listing and search endpoints
type QueryRepository interface {
	SearchInputs(ctx context.Context, search InputSearch) ([]InputView, int64, error)
	SearchOutputs(ctx context.Context, search OutputSearch) ([]OutputView, int64, error)
}
