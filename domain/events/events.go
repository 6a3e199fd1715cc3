package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBatchGenerated   EventType = "batch_generated"
	EventTypeHistoryRefreshed EventType = "history_refreshed"
	EventTypeNewContest       EventType = "new_contest"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BatchGeneratedEvent is emitted after a batch of tickets was generated
type BatchGeneratedEvent struct {
	BatchID             string    `json:"batch_id"`
	Quantity            int       `json:"quantity"`
	LuckyMonth          string    `json:"lucky_month"`
	TriggerNumbers      []int     `json:"trigger_numbers"`
	TicketsWithTriggers int       `json:"tickets_with_triggers"`
	LatestContest       int64     `json:"latest_contest"`
	DataSource          string    `json:"data_source"`
	GeneratedAt         time.Time `json:"generated_at"`
}

func (e BatchGeneratedEvent) Type() EventType {
	return EventTypeBatchGenerated
}

// HistoryRefreshedEvent is emitted after draws were ingested
type HistoryRefreshedEvent struct {
	Saved          int   `json:"saved"`
	LatestContest  int64 `json:"latest_contest"`
	PreviousLatest int64 `json:"previous_latest"`
}

func (e HistoryRefreshedEvent) Type() EventType {
	return EventTypeHistoryRefreshed
}

// NewContestEvent is emitted when a contest newer than the stored ones appears
type NewContestEvent struct {
	ContestNumber int64     `json:"contest_number"`
	DrawDate      time.Time `json:"draw_date"`
	Numbers       []int     `json:"numbers"`
	LuckyMonth    string    `json:"lucky_month"`
	Accumulated   bool      `json:"accumulated"`
	NextContest   int64     `json:"next_contest"`
	NextPrize     float64   `json:"next_prize"`
}

func (e NewContestEvent) Type() EventType {
	return EventTypeNewContest
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
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
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish emits the event on a background context
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// TransactionalBus holds events until the surrounding database transaction commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) error {
	b.pending = append(b.pending, e)
	return nil
}

// Flush emits pending events; called after a successful commit
func (b *TransactionalBus) Flush() {
	// Events outlive the transaction context
	ctx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(ctx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
