package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/shared"
)

// InMemoryEventBus is a synchronous in-process event bus. Handlers run
// in the publisher's goroutine; a failing handler is logged and does
// not stop delivery to the others.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler
	logger   *zap.Logger
	started  bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger,
	}
}

// Publish delivers events to all subscribed handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	started := b.started
	b.mu.RUnlock()
	if !started {
		return shared.NewDomainError("EVENT_BUS_STOPPED", "Event bus is not running")
	}

	for _, event := range events {
		b.mu.RLock()
		targets := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.wildcard))
		targets = append(targets, b.handlers[event.EventType()]...)
		targets = append(targets, b.wildcard...)
		b.mu.RUnlock()

		for _, handler := range targets {
			if err := handler.Handle(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err))
			}
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types. With no
// event types given, the handler's own EventTypes are used; an empty
// result subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, eventType := range eventTypes {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
}

// Unsubscribe removes a handler from all subscriptions
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, handlers := range b.handlers {
		b.handlers[eventType] = removeHandler(handlers, handler)
	}
	b.wildcard = removeHandler(b.wildcard, handler)
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
	return nil
}

// Stop marks the bus as stopped; later publishes fail fast
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	return nil
}

func removeHandler(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := handlers[:0]
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

// Ensure InMemoryEventBus implements shared.EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
