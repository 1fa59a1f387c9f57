package ledger

import (
	"context"
	"fmt"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchLocker serialises compensation of the same batch across processes.
// The returned release func must be called once the work is done.
type BatchLocker interface {
	LockBatch(ctx context.Context, batchID uuid.UUID) (release func(), err error)
}

// Compensator deletes a production batch and returns every withdrawal it
// used to the Inputs it came from, as one transaction.
type Compensator struct {
	uow    *unitOfWork
	locker BatchLocker
	logger *zap.Logger
}

// NewCompensator creates a new Compensator
func NewCompensator(txScope TransactionScope, logger *zap.Logger) *Compensator {
	uow := newUnitOfWork(txScope, logger)
	return &Compensator{uow: uow, logger: uow.logger}
}

// SetBatchLocker sets the cross-process lock taken before compensating
func (c *Compensator) SetBatchLocker(locker BatchLocker) {
	c.locker = locker
}

// SetEventPublisher sets the publisher that receives events after commit
func (c *Compensator) SetEventPublisher(publisher shared.EventPublisher) {
	c.uow.publisher = publisher
}

// SetMetrics sets the business metrics recorder
func (c *Compensator) SetMetrics(metrics Metrics) {
	if metrics != nil {
		c.uow.metrics = metrics
	}
}

// SetRetryPolicy overrides the optimistic-lock retry policy
func (c *Compensator) SetRetryPolicy(policy RetryPolicy) {
	c.uow.policy = policy
}

// DeleteProductionBatch removes the batch, its Outputs, association rows and
// Opus results, restoring the withdrawn quantity to each Input. Calling it
// again for the same batch returns NotFound.
func (c *Compensator) DeleteProductionBatch(ctx context.Context, batchID uuid.UUID, actor ledger.Actor) (*CompensationReport, error) {
	if err := ledger.RequireElevated(actor); err != nil {
		return nil, err
	}

	if c.locker != nil {
		release, err := c.locker.LockBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var report CompensationReport
	err := c.uow.run(ctx, "delete_production_batch", func(repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		var (
			events []shared.DomainEvent
			err    error
		)
		report, events, err = c.compensate(ctx, repos, batchID)
		if err != nil {
			return nil, err
		}
		return append(events, ledger.NewBatchCompensatedEvent(
			batchID, report.OutputsRemoved, report.InputsRestored, report.AmountRestored,
		)), nil
	})
	if err != nil {
		return nil, err
	}

	c.uow.metrics.RecordCompensation(ctx, report.OutputsRemoved, report.AmountRestored)
	c.logger.Info("production batch compensated",
		zap.String("batch_id", batchID.String()),
		zap.Int("outputs_removed", report.OutputsRemoved),
		zap.Int("inputs_restored", report.InputsRestored),
		zap.String("amount_restored", report.AmountRestored.String()),
		zap.Int64("opus_removed", report.OpusRemoved),
	)
	return &report, nil
}

func (c *Compensator) compensate(ctx context.Context, repos TransactionalRepositories, batchID uuid.UUID) (CompensationReport, []shared.DomainEvent, error) {
	batchRepo := repos.BatchRepo()

	if _, err := batchRepo.FindByIDForUpdate(ctx, batchID); err != nil {
		return CompensationReport{}, nil, err
	}

	plan, locked, err := c.lockPlan(ctx, repos, batchID)
	if err != nil {
		return CompensationReport{}, nil, err
	}

	report := CompensationReport{
		BatchID:        batchID,
		InputsRestored: len(plan.Restores),
		AmountRestored: plan.TotalRestored(),
		Inputs:         make([]InputRestoreResult, 0, len(plan.Restores)),
	}

	if report.AssociationsRemoved, err = batchRepo.DetachOutputs(ctx, plan.OutputIDs); err != nil {
		return CompensationReport{}, nil, fmt.Errorf("detach outputs: %w", err)
	}
	removed, err := repos.OutputRepo().DeleteByIDs(ctx, plan.OutputIDs)
	if err != nil {
		return CompensationReport{}, nil, fmt.Errorf("delete outputs: %w", err)
	}
	if int(removed) != len(plan.OutputIDs) {
		// Every planned Output sits under a held Input lock, so a
		// shortfall means the plan no longer matches the table
		return CompensationReport{}, nil, errBatchOutputsMoved
	}
	report.OutputsRemoved = int(removed)

	if report.OpusRemoved, err = batchRepo.DeleteOpusByBatch(ctx, batchID); err != nil {
		return CompensationReport{}, nil, fmt.Errorf("delete opus: %w", err)
	}
	if err := batchRepo.Delete(ctx, batchID); err != nil {
		return CompensationReport{}, nil, err
	}

	var events []shared.DomainEvent
	for _, restore := range plan.Restores {
		input := locked[restore.InputID]
		result := InputRestoreResult{
			InputID:      input.ID,
			Outputs:      restore.Outputs,
			Restored:     restore.Amount,
			TakenBefore:  input.QuantityTaken,
			StatusBefore: string(input.Status),
		}

		remaining, err := repos.OutputRepo().SumByInput(ctx, input.ID)
		if err != nil {
			return CompensationReport{}, nil, fmt.Errorf("sum remaining outputs: %w", err)
		}
		if err := input.ApplyConsumption(remaining); err != nil {
			return CompensationReport{}, nil, err
		}
		if err := repos.InputRepo().SaveWithLock(ctx, input); err != nil {
			return CompensationReport{}, nil, err
		}

		result.TakenAfter = input.QuantityTaken
		result.StatusAfter = string(input.Status)
		report.Inputs = append(report.Inputs, result)
		events = append(events, drainEvents(input)...)
	}

	return report, events, nil
}

// errBatchOutputsMoved makes the unit of work replay the compensation
var errBatchOutputsMoved = shared.NewDomainError(shared.CodeOptimisticLockFailed,
	"Production batch outputs changed during compensation")

// maxPlanPasses bounds how often the batch Outputs are re-read while
// locking the Inputs they draw from
const maxPlanPasses = 3

// lockPlan reads the batch Outputs, locks their Inputs in ascending id order
// and reads the Outputs again. Outputs are only edited under their Input's
// lock and only attached under the batch lock, so once a read names no
// unlocked Input the plan can no longer change before commit.
func (c *Compensator) lockPlan(ctx context.Context, repos TransactionalRepositories, batchID uuid.UUID) (ledger.CompensationPlan, map[uuid.UUID]*ledger.Input, error) {
	locked := make(map[uuid.UUID]*ledger.Input)

	for pass := 0; pass < maxPlanPasses; pass++ {
		outputs, err := repos.BatchRepo().FindOutputs(ctx, batchID)
		if err != nil {
			return ledger.CompensationPlan{}, nil, fmt.Errorf("load batch outputs: %w", err)
		}
		plan := ledger.PlanCompensation(batchID, outputs)

		var missing []uuid.UUID
		for _, id := range plan.InputIDs() {
			if _, ok := locked[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			return plan, locked, nil
		}

		inputs, err := repos.InputRepo().FindByIDsForUpdate(ctx, missing)
		if err != nil {
			return ledger.CompensationPlan{}, nil, err
		}
		if len(inputs) != len(missing) {
			return ledger.CompensationPlan{}, nil, ledger.NewNotFoundError("Input")
		}
		for i := range inputs {
			locked[inputs[i].ID] = &inputs[i]
		}
	}

	c.logger.Warn("batch outputs kept moving while locking inputs",
		zap.String("batch_id", batchID.String()),
		zap.Int("passes", maxPlanPasses),
	)
	return ledger.CompensationPlan{}, nil, errBatchOutputsMoved
}
