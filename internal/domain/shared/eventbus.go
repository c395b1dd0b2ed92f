package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in
	// An empty slice means the handler receives all events
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	// Subscribe registers a handler for specific event types
	// If no event types are provided, the handler receives all events
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from the subscription list
	Unsubscribe(handler EventHandler)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
	// Start starts the event bus (e.g., background processing)
	Start(ctx context.Context) error
	// Stop gracefully stops the event bus
	Stop(ctx context.Context) error
}

// EventSink is an append-only external mirror of domain events (audit log,
// stream, notification queue). Sinks are best effort: the in-memory state
// that produced an event stays authoritative if Append fails.
type EventSink interface {
	// Name identifies the sink in logs
	Name() string
	// Append writes one event to the sink
	Append(ctx context.Context, event DomainEvent) error
}

// NoopPublisher discards every event. It is the default publisher for
// components constructed without an event bus.
type NoopPublisher struct{}

// Publish implements EventPublisher
func (NoopPublisher) Publish(ctx context.Context, events ...DomainEvent) error {
	return nil
}
