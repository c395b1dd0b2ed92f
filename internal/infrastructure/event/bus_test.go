package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", "SKU-1"),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("SaleApplied")
	bus.Subscribe(handler)

	event := newTestEvent("SaleApplied")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
	assert.Equal(t, int64(1), bus.Published())
}

func TestInMemoryEventBus_FiltersByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	sales := newTestHandler()
	alerts := newTestHandler()
	all := newTestHandler()
	bus.Subscribe(sales, "SaleApplied")
	bus.Subscribe(alerts, "ReorderAlertCreated")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("SaleApplied"),
		newTestEvent("ReorderAlertCreated"),
		newTestEvent("BatchExpired"),
	))

	assert.Len(t, sales.getHandled(), 1)
	assert.Len(t, alerts.getHandled(), 1)
	assert.Len(t, all.getHandled(), 3)
	assert.Equal(t, int64(3), bus.Published())
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler()
	failing.err = errors.New("sink down")
	healthy := newTestHandler()
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("SaleApplied"))
	require.NoError(t, err)

	assert.Len(t, healthy.getHandled(), 1)
	assert.Equal(t, int64(1), bus.HandlerFailures())
	require.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
	entry := logs.All()[0]
	assert.Equal(t, "SaleApplied", entry.ContextMap()["event_type"])
	assert.Equal(t, "SKU-1", entry.ContextMap()["aggregate_key"])
}

func TestInMemoryEventBus_RecoversHandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	panicky := newTestHandler()
	panicky.panicWith = "boom"
	after := newTestHandler()
	bus.Subscribe(panicky)
	bus.Subscribe(after)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("SaleApplied"))
	})
	assert.Len(t, after.getHandled(), 1)
	assert.Equal(t, int64(1), bus.HandlerFailures())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler()
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("SaleApplied")))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_SkipsNilEvents(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler()
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), nil, newTestEvent("SaleApplied")))
	assert.Len(t, handler.getHandled(), 1)
	assert.Equal(t, int64(1), bus.Published())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	assert.False(t, bus.IsRunning())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.IsRunning())
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler()
	bus.Subscribe(handler)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), newTestEvent("SaleApplied"))
		}()
	}
	wg.Wait()

	assert.Len(t, handler.getHandled(), 50)
}
