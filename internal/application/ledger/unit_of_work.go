package ledger

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a unit of work is replayed after an
// optimistic version check fails
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy returns three attempts with a 20ms base backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 20 * time.Millisecond}
}

// unitFunc does the work of one attempt and returns the domain events to
// publish once the transaction has committed
type unitFunc func(repos TransactionalRepositories) ([]shared.DomainEvent, error)

// unitOfWork runs ledger mutations in a transaction with retry, metrics and
// post-commit event publishing
type unitOfWork struct {
	txScope   TransactionScope
	policy    RetryPolicy
	metrics   Metrics
	publisher shared.EventPublisher
	logger    *zap.Logger
}

func newUnitOfWork(txScope TransactionScope, logger *zap.Logger) *unitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &unitOfWork{
		txScope: txScope,
		policy:  DefaultRetryPolicy(),
		metrics: noopMetrics{},
		logger:  logger,
	}
}

func (u *unitOfWork) run(ctx context.Context, operation string, fn unitFunc) error {
	attempts := u.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		var events []shared.DomainEvent
		err := u.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			events, err = fn(repos)
			return err
		})
		if err == nil {
			u.publish(ctx, events)
			return nil
		}

		if !errors.Is(err, shared.ErrOptimisticLockFailed) {
			if de, ok := shared.AsDomainError(err); ok {
				u.metrics.RecordRejection(ctx, operation, de.Code)
			}
			return err
		}

		u.metrics.RecordRetry(ctx, operation)
		if attempt >= attempts {
			u.logger.Warn("ledger retries exhausted",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
			)
			conflict := ledger.NewConflictError(attempt)
			u.metrics.RecordRejection(ctx, operation, conflict.Code)
			return conflict
		}

		u.logger.Debug("retrying after version conflict",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
		)
		if err := sleep(ctx, u.backoff(attempt)); err != nil {
			return err
		}
	}
}

// backoff grows linearly with the attempt and adds up to one base interval of jitter
func (u *unitOfWork) backoff(attempt int) time.Duration {
	base := u.policy.Backoff
	if base <= 0 {
		return 0
	}
	return time.Duration(attempt)*base + time.Duration(rand.Int64N(int64(base)))
}

func (u *unitOfWork) publish(ctx context.Context, events []shared.DomainEvent) {
	if u.publisher == nil || len(events) == 0 {
		return
	}
	// Handler errors are logged by the event bus, the commit already happened
	if err := u.publisher.Publish(ctx, events...); err != nil {
		u.logger.Warn("failed to publish ledger events", zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// drainEvents returns and clears the pending events of an aggregate
func drainEvents(agg shared.AggregateRoot) []shared.DomainEvent {
	events := append([]shared.DomainEvent(nil), agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
	return events
}
