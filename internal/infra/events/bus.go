package events

import (
	"sync"

	"go.uber.org/zap"
)

// Bus is a simple synchronous event bus for domain events. Lifecycle
// transitions publish here and downstream delivery is handled by
// subscribers, so a failed side effect can never roll back or block a
// state transition.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Register registers a handler for the events it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
		b.logger.Debug("registered event handler",
			zap.String("event_type", eventType),
		)
	}
}

// Publish dispatches an event to all registered handlers, synchronously
// and in registration order. A failing handler is logged and the rest
// continue processing.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered for event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return
	}

	for _, handler := range handlers {
		if err := handler.Handle(event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
		}
	}
}

// PublishAll dispatches multiple events.
func (b *Bus) PublishAll(events []Event) {
	for _, event := range events {
		b.Publish(event)
	}
}
