package ledger

import (
	"context"
	"fmt"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchService manages production batches: creation, attaching
// withdrawals and recording Opus results
type BatchService struct {
	uow    *unitOfWork
	logger *zap.Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(txScope TransactionScope, logger *zap.Logger) *BatchService {
	uow := newUnitOfWork(txScope, logger)
	return &BatchService{uow: uow, logger: uow.logger}
}

// CreateProductionBatch opens a batch and attaches the given Outputs.
// Every Output id must exist.
func (s *BatchService) CreateProductionBatch(ctx context.Context, req CreateProductionBatchRequest, actor ledger.Actor) (*ProductionBatchResponse, error) {
	if err := ledger.RequireElevated(actor); err != nil {
		return nil, err
	}

	var result ProductionBatchResponse
	err := s.uow.run(ctx, "create_production_batch", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		batch, err := ledger.NewProductionBatch(ledger.BatchDetails{
			ClientID:  req.ClientID,
			OpuDate:   req.OpuDate,
			Place:     req.Place,
			Farm:      req.Farm,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Container: req.Container,
			Notes:     req.Notes,
		})
		if err != nil {
			return nil, err
		}

		outputs, err := requireOutputs(ctx, repos, req.OutputIDs)
		if err != nil {
			return nil, err
		}
		batch.Attach(req.OutputIDs...)

		if err := repos.BatchRepo().Create(ctx, batch); err != nil {
			return nil, fmt.Errorf("create production batch: %w", err)
		}

		result = ToProductionBatchResponse(batch)
		result.Outputs = toOutputResponses(outputs)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("production batch created",
		zap.String("batch_id", result.ID.String()),
		zap.String("client_id", result.ClientID.String()),
		zap.Int("outputs", len(result.OutputIDs)),
	)
	return &result, nil
}

// AttachOutputs links more withdrawals to an existing batch
func (s *BatchService) AttachOutputs(ctx context.Context, batchID uuid.UUID, outputIDs []uuid.UUID, actor ledger.Actor) (*ProductionBatchResponse, error) {
	if err := ledger.RequireElevated(actor); err != nil {
		return nil, err
	}
	if len(outputIDs) == 0 {
		return nil, ledger.NewValidationError("output_ids", "At least one output is required")
	}

	var result ProductionBatchResponse
	err := s.uow.run(ctx, "attach_outputs", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		batch, err := repos.BatchRepo().FindByIDForUpdate(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if _, err := requireOutputs(ctx, repos, outputIDs); err != nil {
			return nil, err
		}

		added := batch.Attach(outputIDs...)
		if err := repos.BatchRepo().AttachOutputs(ctx, batch.ID, added); err != nil {
			return nil, fmt.Errorf("attach outputs: %w", err)
		}

		result = ToProductionBatchResponse(batch)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddOpus records a donor's laboratory result for the batch
func (s *BatchService) AddOpus(ctx context.Context, batchID uuid.UUID, req AddOpusRequest, actor ledger.Actor) (*OpusResponse, error) {
	if err := ledger.RequireElevated(actor); err != nil {
		return nil, err
	}

	var result OpusResponse
	err := s.uow.run(ctx, "add_opus", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return nil, err
		}
		opus, err := ledger.NewOpus(batch, req.BullID, req.DonorCode, req.Race, derefTime(req.Date), req.Counts)
		if err != nil {
			return nil, err
		}
		if err := repos.BatchRepo().CreateOpus(ctx, opus); err != nil {
			return nil, fmt.Errorf("create opus: %w", err)
		}
		result = ToOpusResponse(opus)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProductionBatch returns a batch with its Outputs and Opus rows
func (s *BatchService) GetProductionBatch(ctx context.Context, batchID uuid.UUID, actor ledger.Actor) (*ProductionBatchResponse, error) {
	var result ProductionBatchResponse
	err := s.uow.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := ledger.Authorize(actor, batch.ClientID); err != nil {
			return err
		}
		outputs, err := repos.BatchRepo().FindOutputs(ctx, batchID)
		if err != nil {
			return fmt.Errorf("load batch outputs: %w", err)
		}
		opus, err := repos.BatchRepo().FindOpus(ctx, batchID)
		if err != nil {
			return fmt.Errorf("load opus: %w", err)
		}

		result = ToProductionBatchResponse(batch)
		result.Outputs = toOutputResponses(outputs)
		result.Opus = make([]OpusResponse, len(opus))
		for i := range opus {
			result.Opus[i] = ToOpusResponse(&opus[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListProductionBatches lists a client's batches. Non-elevated actors only
// see their own.
func (s *BatchService) ListProductionBatches(ctx context.Context, clientID uuid.UUID, filter shared.Filter, actor ledger.Actor) (shared.Paginated[ProductionBatchResponse], error) {
	if !actor.Elevated {
		clientID = actor.UserID
	}
	filter = filter.Normalize()

	var page shared.Paginated[ProductionBatchResponse]
	err := s.uow.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, total, err := repos.BatchRepo().FindByClient(ctx, clientID, filter)
		if err != nil {
			return err
		}
		items := make([]ProductionBatchResponse, len(batches))
		for i := range batches {
			items[i] = ToProductionBatchResponse(&batches[i])
		}
		page = shared.NewPaginated(items, total, filter.Page, filter.PageSize)
		return nil
	})
	return page, err
}

// requireOutputs loads the Outputs and fails with NotFound if any id is unknown
func requireOutputs(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) ([]ledger.Output, error) {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	outputs, err := repos.OutputRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load outputs: %w", err)
	}
	if len(outputs) != len(unique) {
		found := make(map[uuid.UUID]struct{}, len(outputs))
		for _, o := range outputs {
			found[o.ID] = struct{}{}
		}
		for id := range unique {
			if _, ok := found[id]; !ok {
				return nil, ledger.NewNotFoundError("Output").WithDetail("output_id", id.String())
			}
		}
	}
	return outputs, nil
}
