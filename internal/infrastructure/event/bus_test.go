package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "sample",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("OutputRecorded")
	bus.Subscribe(handler)

	e1, e2 := newTestEvent("OutputRecorded"), newTestEvent("OutputRecorded")
	require.NoError(t, bus.Publish(context.Background(), e1, e2, newTestEvent("InputCreated")))

	require.Equal(t, 2, handler.count())
	assert.Equal(t, e1, handler.handled[0])
	assert.Equal(t, e2, handler.handled[1])
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	handler := newTestHandler("OutputRecorded")
	bus.Subscribe(handler, "InputCreated")

	_ = bus.Publish(context.Background(), newTestEvent("OutputRecorded"), newTestEvent("InputCreated"))
	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_Wildcard(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	handler := newTestHandler()
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B"))
	assert.Equal(t, 2, handler.count())
}

func TestInMemoryEventBus_FailingHandlersAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("X")
	failing.err = errors.New("handler error")
	panicking := newTestHandler("X")
	panicking.panics = true
	healthy := newTestHandler("X")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	handler := newTestHandler("X")
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("X"))

	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("X"))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	typed := newTestHandler()
	wild := newTestHandler()

	r.Register(typed, "A", "B")
	r.Register(wild)

	assert.Equal(t, []shared.EventHandler{typed, wild}, r.GetHandlers("A"))
	assert.Equal(t, []shared.EventHandler{wild}, r.GetHandlers("C"))
	assert.Len(t, r.GetAllHandlers(), 2)

	r.Unregister(typed)
	assert.Equal(t, []shared.EventHandler{wild}, r.GetHandlers("A"))
	assert.Len(t, r.GetAllHandlers(), 1)
}
