package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePaymentRecorded   EventType = "payment_recorded"
	EventTypePaymentDeleted    EventType = "payment_deleted"
	EventTypeParticipantJoined EventType = "participant_joined"
	EventTypeParticipantLeft   EventType = "participant_left"
	EventTypeRoundAdvanced     EventType = "round_advanced"
	EventTypeRoomSettled       EventType = "room_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PaymentRecordedEvent fires after a payment is committed to the log
type PaymentRecordedEvent struct {
	RoomID    string
	PaymentID string
	FromID    string
	ToID      string
	Amount    int64
	RoundNum  int
}

func (e PaymentRecordedEvent) Type() EventType {
	return EventTypePaymentRecorded
}

// PaymentDeletedEvent fires after a payment is removed from the log
type PaymentDeletedEvent struct {
	RoomID    string
	PaymentID string
}

func (e PaymentDeletedEvent) Type() EventType {
	return EventTypePaymentDeleted
}

// ParticipantJoinedEvent fires when a player joins (or re-joins) a room
type ParticipantJoinedEvent struct {
	RoomID        string
	ParticipantID string
	Name          string
}

func (e ParticipantJoinedEvent) Type() EventType {
	return EventTypeParticipantJoined
}

// ParticipantLeftEvent fires when a player leaves a room
type ParticipantLeftEvent struct {
	RoomID        string
	ParticipantID string
}

func (e ParticipantLeftEvent) Type() EventType {
	return EventTypeParticipantLeft
}

// RoundAdvancedEvent fires when a room moves to a new round
type RoundAdvancedEvent struct {
	RoomID   string
	NewRound int
}

func (e RoundAdvancedEvent) Type() EventType {
	return EventTypeRoundAdvanced
}

// RoomSettledEvent fires after a settle-up snapshot is written
type RoomSettledEvent struct {
	RoomID       string
	RoomCode     string
	SettlementID int64
}

func (e RoomSettledEvent) Type() EventType {
	return EventTypeRoomSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. Consumers of room state
// (API pollers, the Discord surface) subscribe here and re-read snapshots
// when something changes; the bus carries notifications, never state.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	// Handlers run asynchronously so a slow consumer cannot block the caller
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events raised inside a unit of work until the
// database transaction commits, then flushes them to the real bus. Events
// from rolled-back transactions are discarded and never observed.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit. Events are emitted on a
// background context: their lifecycle is independent of the transaction's.
func (b *TransactionalBus) Flush() {
	ctx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(ctx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
