package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector gathers events delivered to a subscription across handler
// goroutines
type collector struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
}

func newCollector(expected int) *collector {
	return &collector{done: make(chan struct{}, expected)}
}

func (c *collector) handle(ctx context.Context, event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	payments := newCollector(1)
	settles := newCollector(1)
	bus.Subscribe(EventTypePaymentRecorded, payments.handle)
	bus.Subscribe(EventTypeRoomSettled, settles.handle)

	bus.Emit(ctx, PaymentRecordedEvent{RoomID: "room-1", PaymentID: "pay-1", Amount: 1050})

	received := payments.wait(t, 1)
	require.Len(t, received, 1)
	payment, ok := received[0].(PaymentRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, "pay-1", payment.PaymentID)

	// The settled subscription saw nothing
	settles.mu.Lock()
	assert.Empty(t, settles.events)
	settles.mu.Unlock()
}

func TestBus_MultipleHandlersForOneType(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	first := newCollector(1)
	second := newCollector(1)
	bus.Subscribe(EventTypeRoomSettled, first.handle)
	bus.Subscribe(EventTypeRoomSettled, second.handle)

	bus.Emit(ctx, RoomSettledEvent{RoomID: "room-1", RoomCode: "ABCDEF", SettlementID: 7})

	assert.Len(t, first.wait(t, 1), 1)
	assert.Len(t, second.wait(t, 1), 1)
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	survivor := newCollector(1)
	bus.Subscribe(EventTypeRoundAdvanced, func(ctx context.Context, event Event) {
		panic("handler blew up")
	})
	bus.Subscribe(EventTypeRoundAdvanced, survivor.handle)

	bus.Emit(ctx, RoundAdvancedEvent{RoomID: "room-1", NewRound: 2})

	assert.Len(t, survivor.wait(t, 1), 1)
}

func TestTransactionalBus_FlushDeliversPending(t *testing.T) {
	real := NewBus()
	joined := newCollector(2)
	real.Subscribe(EventTypeParticipantJoined, joined.handle)

	txBus := NewTransactionalBus(real)
	txBus.Publish(ParticipantJoinedEvent{RoomID: "room-1", ParticipantID: "p-1", Name: "Alice"})
	txBus.Publish(ParticipantJoinedEvent{RoomID: "room-1", ParticipantID: "p-2", Name: "Bob"})

	// Nothing leaves the transaction before Flush
	joined.mu.Lock()
	assert.Empty(t, joined.events)
	joined.mu.Unlock()

	txBus.Flush()

	received := joined.wait(t, 2)
	require.Len(t, received, 2)
	names := []string{
		received[0].(ParticipantJoinedEvent).Name,
		received[1].(ParticipantJoinedEvent).Name,
	}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)

	// A second flush has nothing left to deliver
	txBus.Flush()
	select {
	case <-joined.done:
		t.Fatal("flushed events were delivered twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	real := NewBus()
	settles := newCollector(1)
	real.Subscribe(EventTypeRoomSettled, settles.handle)

	txBus := NewTransactionalBus(real)
	txBus.Publish(RoomSettledEvent{RoomID: "room-1", RoomCode: "ABCDEF"})
	txBus.Discard()
	txBus.Flush()

	select {
	case <-settles.done:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}
