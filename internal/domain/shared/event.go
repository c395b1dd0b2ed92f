package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	// AggregateKey identifies the aggregate the event belongs to. Inventory
	// aggregates are keyed by SKU, alerts and orders by their UUID string.
	AggregateKey() string
	AggregateType() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggKey    string    `json:"aggregate_key"`
	AggType   string    `json:"aggregate_type"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateKey returns the key of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateKey() string {
	return e.AggKey
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType, aggKey string) BaseDomainEvent {
	return NewBaseDomainEventAt(eventType, aggType, aggKey, time.Now())
}

// NewBaseDomainEventAt creates a new base domain event with an explicit timestamp
func NewBaseDomainEventAt(eventType, aggType, aggKey string, at time.Time) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: at,
		AggKey:    aggKey,
		AggType:   aggType,
	}
}
