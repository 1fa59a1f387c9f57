package ledger

import (
	"context"

	"github.com/genlab/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the ledger repositories.
// Every repository handed to fn shares one database transaction that is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within a transaction.
//
// Aggregate boundary notes:
//   - InputRepo: Input is the aggregate root. QuantityTaken, Total and Status only change
//     through it, and always after its row is locked.
//   - OutputRepo: Outputs are stored separately so their sum can be re-derived in SQL.
//   - BatchRepo: production batches own the association rows and the Opus results.
type TransactionalRepositories interface {
	InputRepo() ledger.InputRepository
	OutputRepo() ledger.OutputRepository
	BatchRepo() ledger.ProductionBatchRepository
}

// NoOpTransactionScope runs the function against plain repositories.
// This is useful for unit tests with mocked repositories.
type NoOpTransactionScope struct {
	inputRepo  ledger.InputRepository
	outputRepo ledger.OutputRepository
	batchRepo  ledger.ProductionBatchRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	inputRepo ledger.InputRepository,
	outputRepo ledger.OutputRepository,
	batchRepo ledger.ProductionBatchRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		inputRepo:  inputRepo,
		outputRepo: outputRepo,
		batchRepo:  batchRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InputRepo() ledger.InputRepository {
	return s.inputRepo
}

func (s *NoOpTransactionScope) OutputRepo() ledger.OutputRepository {
	return s.outputRepo
}

func (s *NoOpTransactionScope) BatchRepo() ledger.ProductionBatchRepository {
	return s.batchRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
