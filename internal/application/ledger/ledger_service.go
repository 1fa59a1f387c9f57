package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService records withdrawals against Inputs and keeps every Input's
// consumed quantity, balance and status equal to what its Outputs imply.
//
// Each mutation locks the Input row first, reads the sum of its Outputs,
// validates, writes and re-derives in a single transaction.
type LedgerService struct {
	uow      *unitOfWork
	bullRepo ledger.BullRepository
	logger   *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(txScope TransactionScope, bullRepo ledger.BullRepository, logger *zap.Logger) *LedgerService {
	uow := newUnitOfWork(txScope, logger)
	return &LedgerService{
		uow:      uow,
		bullRepo: bullRepo,
		logger:   uow.logger,
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.uow.publisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *LedgerService) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.uow.metrics = metrics
	}
}

// SetRetryPolicy overrides the optimistic-lock retry policy
func (s *LedgerService) SetRetryPolicy(policy RetryPolicy) {
	s.uow.policy = policy
}

// CreateOutput records a withdrawal from an Input
func (s *LedgerService) CreateOutput(ctx context.Context, inputID uuid.UUID, req CreateOutputRequest, actor ledger.Actor) (*OutputResponse, error) {
	var result OutputResponse

	err := s.uow.run(ctx, "create_output", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, err := s.lockInput(ctx, repos, inputID, actor)
		if err != nil {
			return nil, err
		}

		consumed, err := repos.OutputRepo().SumByInput(ctx, input.ID)
		if err != nil {
			return nil, fmt.Errorf("sum outputs: %w", err)
		}
		if err := input.CheckWithdrawal(req.QuantityOutput, consumed); err != nil {
			return nil, err
		}

		output, err := ledger.NewOutput(input.ID, req.QuantityOutput, derefTime(req.OutputDate), req.Remark)
		if err != nil {
			return nil, err
		}
		if err := repos.OutputRepo().Create(ctx, output); err != nil {
			return nil, fmt.Errorf("create output: %w", err)
		}
		if err := rederive(ctx, repos, input); err != nil {
			return nil, err
		}

		result = ToOutputResponse(output)
		return append(drainEvents(input), ledger.NewOutputEvent(ledger.EventTypeOutputRecorded, output)), nil
	})
	if err != nil {
		return nil, err
	}

	s.uow.metrics.RecordWithdrawal(ctx, result.QuantityOutput)
	s.logger.Info("output recorded",
		zap.String("input_id", inputID.String()),
		zap.String("output_id", result.ID.String()),
		zap.String("quantity", result.QuantityOutput.String()),
	)
	return &result, nil
}

// UpdateOutput changes a withdrawal. The capacity check excludes the
// edited Output from the consumed sum.
func (s *LedgerService) UpdateOutput(ctx context.Context, outputID uuid.UUID, req UpdateOutputRequest, actor ledger.Actor) (*OutputResponse, error) {
	var result OutputResponse

	err := s.uow.run(ctx, "update_output", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, output, err := s.lockOutput(ctx, repos, outputID, actor)
		if err != nil {
			return nil, err
		}

		if req.QuantityOutput != nil {
			others, err := repos.OutputRepo().SumByInputExcluding(ctx, input.ID, output.ID)
			if err != nil {
				return nil, fmt.Errorf("sum outputs: %w", err)
			}
			if err := input.CheckWithdrawal(*req.QuantityOutput, others); err != nil {
				return nil, err
			}
			if err := output.ChangeQuantity(*req.QuantityOutput); err != nil {
				return nil, err
			}
		}
		if req.Remark != nil || req.OutputDate != nil {
			output.UpdateDetails(req.Remark, req.OutputDate)
		}

		if err := repos.OutputRepo().Save(ctx, output); err != nil {
			return nil, fmt.Errorf("save output: %w", err)
		}
		if err := rederive(ctx, repos, input); err != nil {
			return nil, err
		}

		result = ToOutputResponse(output)
		return append(drainEvents(input), ledger.NewOutputEvent(ledger.EventTypeOutputChanged, output)), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteOutput removes a withdrawal and gives its quantity back to the Input.
// The Output is also removed from any production batch that lists it.
func (s *LedgerService) DeleteOutput(ctx context.Context, outputID uuid.UUID, actor ledger.Actor) error {
	return s.uow.run(ctx, "delete_output", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, output, err := s.lockOutput(ctx, repos, outputID, actor)
		if err != nil {
			return nil, err
		}

		if _, err := repos.BatchRepo().DetachOutputs(ctx, []uuid.UUID{output.ID}); err != nil {
			return nil, fmt.Errorf("detach output: %w", err)
		}
		if err := repos.OutputRepo().Delete(ctx, output.ID); err != nil {
			return nil, err
		}
		if err := rederive(ctx, repos, input); err != nil {
			return nil, err
		}

		return append(drainEvents(input), ledger.NewOutputEvent(ledger.EventTypeOutputDeleted, output)), nil
	})
}

// CreateInput registers material for a bull. The Input belongs to the
// bull's owner. Only elevated actors may register material.
func (s *LedgerService) CreateInput(ctx context.Context, req CreateInputRequest, actor ledger.Actor) (*InputResponse, error) {
	if err := ledger.RequireElevated(actor); err != nil {
		return nil, err
	}
	if !req.QuantityReceived.IsPositive() {
		return nil, ledger.NewValidationError("quantity_received", "Received quantity must be positive")
	}
	if req.QuantityTaken.GreaterThan(req.QuantityReceived) {
		return nil, ledger.NewValidationError("quantity_taken", "Initial consumption cannot exceed the received quantity")
	}

	bull, err := s.bullRepo.FindByID(ctx, req.BullID)
	if err != nil {
		return nil, err
	}

	var result InputResponse
	err = s.uow.run(ctx, "create_input", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, err := ledger.NewInput(bull.ID, bull.UserID, req.QuantityReceived, req.Lot, req.Escalarilla, derefTime(req.ExpiresAt))
		if err != nil {
			return nil, err
		}
		if err := repos.InputRepo().Create(ctx, input); err != nil {
			return nil, fmt.Errorf("create input: %w", err)
		}

		var events []shared.DomainEvent
		if req.QuantityTaken.IsPositive() {
			opening, err := ledger.NewOutput(input.ID, req.QuantityTaken, time.Now(), ledger.OpeningBalanceRemark)
			if err != nil {
				return nil, err
			}
			if err := repos.OutputRepo().Create(ctx, opening); err != nil {
				return nil, fmt.Errorf("create opening output: %w", err)
			}
			if err := rederive(ctx, repos, input); err != nil {
				return nil, err
			}
			events = append(events, ledger.NewOutputEvent(ledger.EventTypeOutputRecorded, opening))
		}

		result = ToInputResponse(input)
		return append(drainEvents(input), events...), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("input registered",
		zap.String("input_id", result.ID.String()),
		zap.String("bull_id", result.BullID.String()),
		zap.String("received", result.QuantityReceived.String()),
	)
	return &result, nil
}

// UpdateInput edits an Input. The received quantity may not drop below
// what its Outputs already consumed.
func (s *LedgerService) UpdateInput(ctx context.Context, inputID uuid.UUID, req UpdateInputRequest, actor ledger.Actor) (*InputResponse, error) {
	var result InputResponse

	err := s.uow.run(ctx, "update_input", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, err := s.lockInput(ctx, repos, inputID, actor)
		if err != nil {
			return nil, err
		}

		consumed, err := repos.OutputRepo().SumByInput(ctx, input.ID)
		if err != nil {
			return nil, fmt.Errorf("sum outputs: %w", err)
		}
		if err := input.ApplyConsumption(consumed); err != nil {
			return nil, err
		}
		if req.QuantityReceived != nil {
			if err := input.ChangeReceived(*req.QuantityReceived); err != nil {
				return nil, err
			}
		}
		input.UpdateDetails(req.Lot, req.Escalarilla, req.ExpiresAt)

		if err := repos.InputRepo().SaveWithLock(ctx, input); err != nil {
			return nil, err
		}

		result = ToInputResponse(input)
		return drainEvents(input), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ChangeInputStatus applies an explicit status request. Only cancellation
// of an Input with nothing withdrawn is accepted.
func (s *LedgerService) ChangeInputStatus(ctx context.Context, inputID uuid.UUID, status string, actor ledger.Actor) (*InputResponse, error) {
	target, ok := ledger.ParseInputStatus(status)
	if !ok {
		return nil, ledger.NewValidationError("status", fmt.Sprintf("Unknown status %q", status))
	}

	var result InputResponse
	err := s.uow.run(ctx, "change_input_status", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, err := s.lockInput(ctx, repos, inputID, actor)
		if err != nil {
			return nil, err
		}

		consumed, err := repos.OutputRepo().SumByInput(ctx, input.ID)
		if err != nil {
			return nil, fmt.Errorf("sum outputs: %w", err)
		}
		if err := input.ApplyConsumption(consumed); err != nil {
			return nil, err
		}
		if err := input.ChangeStatus(target); err != nil {
			return nil, err
		}

		if len(input.GetDomainEvents()) > 0 {
			if err := repos.InputRepo().SaveWithLock(ctx, input); err != nil {
				return nil, err
			}
		}

		result = ToInputResponse(input)
		return drainEvents(input), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteInput removes an Input that has no withdrawals left. The owning
// client or an elevated actor may delete it.
func (s *LedgerService) DeleteInput(ctx context.Context, inputID uuid.UUID, actor ledger.Actor) error {
	err := s.uow.run(ctx, "delete_input", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, err := s.lockInput(ctx, repos, inputID, actor)
		if err != nil {
			return nil, err
		}

		consumed, err := repos.OutputRepo().SumByInput(ctx, input.ID)
		if err != nil {
			return nil, fmt.Errorf("sum outputs: %w", err)
		}
		if err := input.MarkDeleted(consumed); err != nil {
			return nil, err
		}
		if err := repos.InputRepo().Delete(ctx, input.ID); err != nil {
			return nil, err
		}

		return drainEvents(input), nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("input deleted", zap.String("input_id", inputID.String()))
	return nil
}

// ReconcileInput re-derives an Input from its Outputs and repairs any drift
// in the stored derived fields
func (s *LedgerService) ReconcileInput(ctx context.Context, inputID uuid.UUID, actor ledger.Actor) (*ReconcileResult, error) {
	if err := ledger.RequireElevated(actor); err != nil {
		return nil, err
	}

	var result ReconcileResult
	err := s.uow.run(ctx, "reconcile_input", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		input, err := repos.InputRepo().FindByIDForUpdate(ctx, inputID)
		if err != nil {
			return nil, err
		}
		consumed, err := repos.OutputRepo().SumByInput(ctx, input.ID)
		if err != nil {
			return nil, fmt.Errorf("sum outputs: %w", err)
		}

		result = ReconcileResult{
			InputID:      input.ID,
			Consumed:     consumed,
			TakenBefore:  input.QuantityTaken,
			TakenAfter:   input.QuantityTaken,
			StatusBefore: string(input.Status),
			StatusAfter:  string(input.Status),
		}
		result.Drifted = !input.Consistent() || !input.QuantityTaken.Equals(consumed)
		if !result.Drifted {
			return nil, nil
		}

		if err := input.ApplyConsumption(consumed); err != nil {
			// Outputs exceed the received quantity; this needs a human
			result.Overdrawn = true
			return nil, nil
		}
		if err := repos.InputRepo().SaveWithLock(ctx, input); err != nil {
			return nil, err
		}

		result.Repaired = true
		result.TakenAfter = input.QuantityTaken
		result.StatusAfter = string(input.Status)
		return drainEvents(input), nil
	})
	if err != nil {
		return nil, err
	}

	if result.Drifted {
		s.uow.metrics.RecordDrift(ctx, result.Repaired)
		s.logger.Warn("input drift detected",
			zap.String("input_id", inputID.String()),
			zap.String("consumed", result.Consumed.String()),
			zap.String("taken_before", result.TakenBefore.String()),
			zap.Bool("repaired", result.Repaired),
			zap.Bool("overdrawn", result.Overdrawn),
		)
	}
	return &result, nil
}

// ReconcileAll checks every Input. Each Input is reconciled in its own
// transaction so one failure does not block the rest.
func (s *LedgerService) ReconcileAll(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	var ids []uuid.UUID
	if err := s.uow.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ids, err = repos.InputRepo().ListIDs(ctx)
		return err
	}); err != nil {
		return summary, fmt.Errorf("list inputs: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		result, err := s.ReconcileInput(ctx, id, ledger.SystemActor)
		if err != nil {
			summary.Failed++
			s.logger.Error("failed to reconcile input", zap.String("input_id", id.String()), zap.Error(err))
			continue
		}
		if result.Repaired {
			summary.Repaired++
		}
		if result.Overdrawn {
			summary.Overdrawn++
		}
	}

	s.logger.Info("ledger reconciliation finished",
		zap.Int("checked", summary.Checked),
		zap.Int("repaired", summary.Repaired),
		zap.Int("overdrawn", summary.Overdrawn),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// lockInput loads the Input under a row lock and checks the actor may touch it
func (s *LedgerService) lockInput(ctx context.Context, repos TransactionalRepositories, inputID uuid.UUID, actor ledger.Actor) (*ledger.Input, error) {
	input, err := repos.InputRepo().FindByIDForUpdate(ctx, inputID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(actor, input.UserID); err != nil {
		return nil, err
	}
	return input, nil
}

// lockOutput resolves the Output's Input, locks it, then re-reads the
// Output so it reflects every write committed before the lock.
func (s *LedgerService) lockOutput(ctx context.Context, repos TransactionalRepositories, outputID uuid.UUID, actor ledger.Actor) (*ledger.Input, *ledger.Output, error) {
	output, err := repos.OutputRepo().FindByID(ctx, outputID)
	if err != nil {
		return nil, nil, err
	}
	input, err := s.lockInput(ctx, repos, output.InputID, actor)
	if err != nil {
		return nil, nil, err
	}
	output, err = repos.OutputRepo().FindByID(ctx, outputID)
	if err != nil {
		return nil, nil, err
	}
	return input, output, nil
}

// rederive sets the Input's consumption to the sum of its Outputs and saves it
func rederive(ctx context.Context, repos TransactionalRepositories, input *ledger.Input) error {
	consumed, err := repos.OutputRepo().SumByInput(ctx, input.ID)
	if err != nil {
		return fmt.Errorf("sum outputs: %w", err)
	}
	if err := input.ApplyConsumption(consumed); err != nil {
		return err
	}
	return repos.InputRepo().SaveWithLock(ctx, input)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
