package events

import (
	"log/slog"
	"sync"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
)

// Event types published on the bus.
const (
	TypeStatusUpdate = "status_update"
)

// Event is one task state-change notification.
type Event struct {
	Type string              `json:"type"`
	Task domain.TaskSnapshot `json:"task"`
}

// Observer receives every published event synchronously. An observer error
// is logged and never interrupts delivery to subsequent observers.
type Observer interface {
	HandleEvent(event Event) error
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(event Event) error

// HandleEvent calls f(event).
func (f ObserverFunc) HandleEvent(event Event) error {
	return f(event)
}

// Bus fans task state-change events out to an unbounded pollable queue and
// to registered observers. It is safe for many concurrent producers and
// consumers.
type Bus struct {
	mu        sync.Mutex
	pending   []Event
	observers []Observer
	logger    *slog.Logger
}

// NewBus creates a progress bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger.With("component", "progress_bus"),
	}
}

// RegisterObserver adds an observer. Observers are invoked synchronously
// on every publish, in registration order.
func (b *Bus) RegisterObserver(observer Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, observer)
	b.logger.Debug("registered progress observer", "observer_count", len(b.observers))
}

// Publish appends a status-update event to the pollable queue and delivers
// it to every registered observer. A failing or panicking observer is
// logged and skipped; publishing never fails.
func (b *Bus) Publish(snapshot domain.TaskSnapshot) {
	event := Event{Type: TypeStatusUpdate, Task: snapshot}

	b.mu.Lock()
	b.pending = append(b.pending, event)
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	for i, observer := range observers {
		b.deliver(observer, i, event)
	}
}

func (b *Bus) deliver(observer Observer, index int, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("progress observer panicked",
				"observer_index", index,
				"task_id", event.Task.ID,
				"panic", r)
		}
	}()

	if err := observer.HandleEvent(event); err != nil {
		b.logger.Error("progress observer failed",
			"error", err,
			"observer_index", index,
			"task_id", event.Task.ID)
	}
}

// Drain atomically empties the pending queue and returns all queued events
// in insertion order. Safe to call concurrently with Publish.
func (b *Bus) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.pending
	b.pending = nil
	return events
}

// Pending returns the number of events currently queued.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
