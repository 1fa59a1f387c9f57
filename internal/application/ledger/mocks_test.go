package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType()
	}
	return types
}

// MockInputRepository is a mock implementation of ledger.InputRepository
type MockInputRepository struct {
	mock.Mock
}

func (m *MockInputRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Input, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Input), args.Error(1)
}

func (m *MockInputRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Input, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Input), args.Error(1)
}

func (m *MockInputRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]ledger.Input, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Input), args.Error(1)
}

func (m *MockInputRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockInputRepository) Create(ctx context.Context, input *ledger.Input) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockInputRepository) SaveWithLock(ctx context.Context, input *ledger.Input) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockInputRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockOutputRepository is a mock implementation of ledger.OutputRepository
type MockOutputRepository struct {
	mock.Mock
}

func (m *MockOutputRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Output, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Output), args.Error(1)
}

func (m *MockOutputRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Output, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Output), args.Error(1)
}

func (m *MockOutputRepository) FindByInput(ctx context.Context, inputID uuid.UUID) ([]ledger.Output, error) {
	args := m.Called(ctx, inputID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Output), args.Error(1)
}

func (m *MockOutputRepository) SumByInput(ctx context.Context, inputID uuid.UUID) (valueobject.Quantity, error) {
	args := m.Called(ctx, inputID)
	return args.Get(0).(valueobject.Quantity), args.Error(1)
}

func (m *MockOutputRepository) SumByInputExcluding(ctx context.Context, inputID, excludeID uuid.UUID) (valueobject.Quantity, error) {
	args := m.Called(ctx, inputID, excludeID)
	return args.Get(0).(valueobject.Quantity), args.Error(1)
}

func (m *MockOutputRepository) Create(ctx context.Context, output *ledger.Output) error {
	return m.Called(ctx, output).Error(0)
}

func (m *MockOutputRepository) Save(ctx context.Context, output *ledger.Output) error {
	return m.Called(ctx, output).Error(0)
}

func (m *MockOutputRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutputRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockBatchRepository is a mock implementation of ledger.ProductionBatchRepository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ProductionBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ProductionBatch), args.Error(1)
}

func (m *MockBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.ProductionBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ProductionBatch), args.Error(1)
}

func (m *MockBatchRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]ledger.ProductionBatch, int64, error) {
	args := m.Called(ctx, clientID, filter)
	return args.Get(0).([]ledger.ProductionBatch), args.Get(1).(int64), args.Error(2)
}

func (m *MockBatchRepository) FindOutputs(ctx context.Context, batchID uuid.UUID) ([]ledger.Output, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Output), args.Error(1)
}

func (m *MockBatchRepository) Create(ctx context.Context, batch *ledger.ProductionBatch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *MockBatchRepository) AttachOutputs(ctx context.Context, batchID uuid.UUID, outputIDs []uuid.UUID) error {
	return m.Called(ctx, batchID, outputIDs).Error(0)
}

func (m *MockBatchRepository) DetachOutputs(ctx context.Context, outputIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, outputIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBatchRepository) CreateOpus(ctx context.Context, opus *ledger.Opus) error {
	return m.Called(ctx, opus).Error(0)
}

func (m *MockBatchRepository) FindOpus(ctx context.Context, batchID uuid.UUID) ([]ledger.Opus, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Opus), args.Error(1)
}

func (m *MockBatchRepository) DeleteOpusByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

// MockBullRepository is a mock implementation of ledger.BullRepository
type MockBullRepository struct {
	mock.Mock
}

func (m *MockBullRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Bull, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Bull), args.Error(1)
}

// MockQueryRepository is a mock implementation of ledger.QueryRepository
type MockQueryRepository struct {
	mock.Mock
}

func (m *MockQueryRepository) SearchInputs(ctx context.Context, search ledger.InputSearch) ([]ledger.InputView, int64, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]ledger.InputView), args.Get(1).(int64), args.Error(2)
}

func (m *MockQueryRepository) SearchOutputs(ctx context.Context, search ledger.OutputSearch) ([]ledger.OutputView, int64, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]ledger.OutputView), args.Get(1).(int64), args.Error(2)
}

// recordingMetrics captures what the services report
type recordingMetrics struct {
	mu            sync.Mutex
	withdrawals   int
	rejections    []string
	retries       int
	compensations int
	drift         []bool
}

func (m *recordingMetrics) RecordWithdrawal(ctx context.Context, qty valueobject.Quantity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawals++
}

func (m *recordingMetrics) RecordRejection(ctx context.Context, operation, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, operation+":"+code)
}

func (m *recordingMetrics) RecordRetry(ctx context.Context, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *recordingMetrics) RecordCompensation(ctx context.Context, outputs int, amount valueobject.Quantity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compensations++
}

func (m *recordingMetrics) RecordDrift(ctx context.Context, repaired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drift = append(m.drift, repaired)
}

// ledgerFixture wires the services to mocked repositories
type ledgerFixture struct {
	inputs    *MockInputRepository
	outputs   *MockOutputRepository
	batches   *MockBatchRepository
	bulls     *MockBullRepository
	publisher *MockEventPublisher
	metrics   *recordingMetrics
	txScope   *NoOpTransactionScope
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		inputs:    new(MockInputRepository),
		outputs:   new(MockOutputRepository),
		batches:   new(MockBatchRepository),
		bulls:     new(MockBullRepository),
		publisher: &MockEventPublisher{},
		metrics:   &recordingMetrics{},
	}
	f.txScope = NewNoOpTransactionScope(f.inputs, f.outputs, f.batches)
	return f
}

func (f *ledgerFixture) ledgerService() *LedgerService {
	svc := NewLedgerService(f.txScope, f.bulls, nil)
	svc.SetEventPublisher(f.publisher)
	svc.SetMetrics(f.metrics)
	svc.SetRetryPolicy(RetryPolicy{MaxAttempts: 3})
	return svc
}

func (f *ledgerFixture) compensator() *Compensator {
	c := NewCompensator(f.txScope, nil)
	c.SetEventPublisher(f.publisher)
	c.SetMetrics(f.metrics)
	c.SetRetryPolicy(RetryPolicy{MaxAttempts: 3})
	return c
}

func (f *ledgerFixture) assertExpectations(t *testing.T) {
	f.inputs.AssertExpectations(t)
	f.outputs.AssertExpectations(t)
	f.batches.AssertExpectations(t)
	f.bulls.AssertExpectations(t)
}

func qty(v string) valueobject.Quantity {
	return valueobject.MustQuantity(v)
}

// newInput builds a stored Input owned by ownerID with taken already applied
func newInput(t *testing.T, ownerID uuid.UUID, received, taken string) *ledger.Input {
	t.Helper()
	input, err := ledger.NewInput(uuid.New(), ownerID, qty(received), "L-1", "E-1", time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, input.ApplyConsumption(qty(taken)))
	input.ClearDomainEvents()
	return input
}

func newOutput(t *testing.T, inputID uuid.UUID, amount string) *ledger.Output {
	t.Helper()
	output, err := ledger.NewOutput(inputID, qty(amount), time.Now(), "")
	require.NoError(t, err)
	return output
}

func requireCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	require.Equal(t, code, de.Code)
	return de
}

var (
	admin = ledger.Actor{UserID: uuid.New(), Elevated: true}
)

func clientActor(id uuid.UUID) ledger.Actor {
	return ledger.Actor{UserID: id}
}

var anyCtx = mock.Anything
