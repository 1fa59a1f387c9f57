package ledger

import (
	"context"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryService serves the read side of the ledger. Non-elevated actors are
// always scoped to their own samples.
type QueryService struct {
	queryRepo  ledger.QueryRepository
	inputRepo  ledger.InputRepository
	outputRepo ledger.OutputRepository
	logger     *zap.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	queryRepo ledger.QueryRepository,
	inputRepo ledger.InputRepository,
	outputRepo ledger.OutputRepository,
	logger *zap.Logger,
) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		queryRepo:  queryRepo,
		inputRepo:  inputRepo,
		outputRepo: outputRepo,
		logger:     logger,
	}
}

// SearchInputs lists Inputs with bull and client context
func (s *QueryService) SearchInputs(ctx context.Context, search ledger.InputSearch, actor ledger.Actor) (shared.Paginated[InputResponse], error) {
	if !actor.Elevated {
		search.OwnerID = actor.UserID
	}
	search.Filter = search.Filter.Normalize()

	views, total, err := s.queryRepo.SearchInputs(ctx, search)
	if err != nil {
		return shared.Paginated[InputResponse]{}, err
	}

	items := make([]InputResponse, len(views))
	for i := range views {
		items[i] = toInputViewResponse(views[i])
	}
	return shared.NewPaginated(items, total, search.Page, search.PageSize), nil
}

// SearchOutputs lists Outputs with Input, bull and client context
func (s *QueryService) SearchOutputs(ctx context.Context, search ledger.OutputSearch, actor ledger.Actor) (shared.Paginated[OutputResponse], error) {
	if !actor.Elevated {
		search.OwnerID = actor.UserID
	}
	search.Filter = search.Filter.Normalize()

	views, total, err := s.queryRepo.SearchOutputs(ctx, search)
	if err != nil {
		return shared.Paginated[OutputResponse]{}, err
	}

	items := make([]OutputResponse, len(views))
	for i := range views {
		items[i] = toOutputViewResponse(views[i])
	}
	return shared.NewPaginated(items, total, search.Page, search.PageSize), nil
}

// GetInput returns one Input
func (s *QueryService) GetInput(ctx context.Context, id uuid.UUID, actor ledger.Actor) (*InputResponse, error) {
	input, err := s.inputRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(actor, input.UserID); err != nil {
		return nil, err
	}
	resp := ToInputResponse(input)
	return &resp, nil
}

// GetOutput returns one Output. Ownership follows its Input.
func (s *QueryService) GetOutput(ctx context.Context, id uuid.UUID, actor ledger.Actor) (*OutputResponse, error) {
	output, err := s.outputRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input, err := s.inputRepo.FindByID(ctx, output.InputID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(actor, input.UserID); err != nil {
		return nil, err
	}
	resp := ToOutputResponse(output)
	return &resp, nil
}

// ListOutputsByInput returns every withdrawal of an Input, oldest first
func (s *QueryService) ListOutputsByInput(ctx context.Context, inputID uuid.UUID, actor ledger.Actor) ([]OutputResponse, error) {
	input, err := s.inputRepo.FindByID(ctx, inputID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(actor, input.UserID); err != nil {
		return nil, err
	}
	outputs, err := s.outputRepo.FindByInput(ctx, inputID)
	if err != nil {
		return nil, err
	}
	return toOutputResponses(outputs), nil
}

// ListInputsByBull pages through the Inputs registered for one bull
func (s *QueryService) ListInputsByBull(ctx context.Context, bullID uuid.UUID, filter shared.Filter, actor ledger.Actor) (shared.Paginated[InputResponse], error) {
	return s.SearchInputs(ctx, ledger.InputSearch{Filter: filter, BullID: bullID}, actor)
}
