package events

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Bus is an in-memory implementation of the Emitter interface that fans
// events out to subscribed listeners.
//
// A single dispatcher goroutine consumes a buffered channel, so listeners
// observe events in emission order and emitters never run listener code on
// their own goroutine. This matters for the coordinator, which emits from
// the scheduler's delivery path and must not block there.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	events chan Event
	closed bool
	wg     sync.WaitGroup
	logger *slog.Logger
}

// Subscription represents one listener's registration with a Bus.
type Subscription struct {
	id       uuid.UUID
	bus      *Bus
	listener Listener
}

// Cancel removes the listener from the bus. Events already queued may still
// be delivered to it; events emitted after Cancel returns will not be.
func (s *Subscription) Cancel() {
	s.bus.unsubscribe(s.id)
}

// NewBus creates a Bus with the given buffer size and starts its dispatcher.
// Callers must Close the bus when done to stop the dispatcher goroutine.
func NewBus(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	b := &Bus{
		events: make(chan Event, bufferSize),
		logger: logger.With("component", "event_bus"),
	}
	b.wg.Add(1)
	go b.dispatchLoop()
	return b
}

// Subscribe adds a listener that will receive every subsequently emitted event.
func (b *Bus) Subscribe(listener Listener) *Subscription {
	sub := &Subscription{
		id:       uuid.New(),
		bus:      b,
		listener: listener,
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	count := len(b.subs)
	b.mu.Unlock()
	b.logger.Debug("listener subscribed", "subscriber_count", count)
	return sub
}

func (b *Bus) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit queues the event for delivery to all current listeners. It never
// blocks: if the buffer is full the event is dropped with a logged warning,
// and emitting on a closed bus is a no-op.
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.events <- event:
	default:
		b.logger.Warn("event buffer full, dropping event",
			"event_id", event.ID,
			"event_type", event.Type,
			"task_id", event.TaskID)
	}
}

// Close stops accepting events, drains the queue, and waits for the
// dispatcher to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) dispatchLoop() {
	defer b.wg.Done()
	for event := range b.events {
		b.dispatch(event)
	}
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	ctx := context.Background()
	for _, sub := range subs {
		b.deliver(ctx, sub, event)
	}
}

// deliver invokes a single listener, isolating its errors and panics from
// the rest of the bus.
func (b *Bus) deliver(ctx context.Context, sub *Subscription, event Event) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("listener panicked handling event",
				"panic", p,
				"event_id", event.ID,
				"event_type", event.Type,
				"stack", string(debug.Stack()))
		}
	}()
	if err := sub.listener.HandleEvent(ctx, event); err != nil {
		b.logger.Error("listener failed to handle event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
			"task_id", event.TaskID)
	}
}
