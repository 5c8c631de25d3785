package events

import (
	"context"
	"log/slog"
	"sync"
)

type registration struct {
	// eventType is empty for handlers that receive every event.
	eventType string
	handler   EventHandler
}

// InMemoryEventEmitter dispatches events synchronously to handlers kept in
// memory.
type InMemoryEventEmitter struct {
	handlers []registration
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		logger: logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a handler that receives every event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.register(registration{handler: handler})
}

// RegisterHandlerFor adds a handler that only receives events of eventType.
func (e *InMemoryEventEmitter) RegisterHandlerFor(eventType string, handler EventHandler) {
	e.register(registration{eventType: eventType, handler: handler})
}

func (e *InMemoryEventEmitter) register(r registration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, r)
	e.logger.Debug("registered event handler",
		"event_type", r.eventType,
		"handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all interested handlers.
// A failing handler does not stop delivery to the others; the first error
// encountered is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := make([]EventHandler, 0, len(e.handlers))
	for _, r := range e.handlers {
		if r.eventType == "" || r.eventType == event.Type {
			handlers = append(handlers, r.handler)
		}
	}
	e.mu.RUnlock()

	e.logger.Debug("emitting event",
		"event_id", event.ID,
		"event_type", event.Type,
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for event",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Recorder is an EventHandler keeping the most recent events in memory.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	events []*Event
}

// NewRecorder creates a Recorder retaining up to limit events.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{limit: limit}
}

// HandleEvent implements EventHandler.
func (r *Recorder) HandleEvent(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	return nil
}

// Events returns the retained events, oldest first.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}
