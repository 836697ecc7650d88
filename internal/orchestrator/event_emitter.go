package orchestrator

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// EventEmitter delivers events to a single subscriber. A nil emitter
// drops everything.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
	logger       *slog.Logger
}

// NewEventEmitter creates an emitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger *slog.Logger) *EventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventEmitter{
		events: make(chan Event, bufferSize),
		logger: logger,
	}
}

// Emit sends an event. When the buffer is full it waits briefly before
// dropping the event.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			e.logger.Warn("event channel full, dropping events", "dropped", count, "type", event.Type)
		}
	}
}

// DroppedCount returns the number of events dropped so far.
func (e *EventEmitter) DroppedCount() uint64 {
	if e == nil {
		return 0
	}
	return e.droppedCount.Load()
}

// Events returns the subscriber channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Emit must not be called afterwards.
func (e *EventEmitter) Close() {
	close(e.events)
}
