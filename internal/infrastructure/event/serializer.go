package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
)

// Envelope is the wire form of a domain event. Payload holds the full
// event as JSON; the other fields are copied out for indexing.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateKey  string          `json:"aggregate_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer handles JSON serialization/deserialization of domain events
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type // eventType -> Go type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewInventoryEventSerializer returns a serializer with every inventory event registered
func NewInventoryEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(inventory.EventTypeSaleApplied, &inventory.SaleAppliedEvent{})
	s.Register(inventory.EventTypeOversellBlocked, &inventory.OversellBlockedEvent{})
	s.Register(inventory.EventTypeBatchReceived, &inventory.BatchReceivedEvent{})
	s.Register(inventory.EventTypeBatchConsumed, &inventory.BatchConsumedEvent{})
	s.Register(inventory.EventTypeBatchWasted, &inventory.BatchWastedEvent{})
	s.Register(inventory.EventTypeBatchExpired, &inventory.BatchExpiredEvent{})
	s.Register(inventory.EventTypeExpirationAlertRaised, &inventory.ExpirationAlertRaisedEvent{})
	s.Register(inventory.EventTypeReorderAlertCreated, &inventory.ReorderAlertCreatedEvent{})
	s.Register(inventory.EventTypeReorderAlertStatusChanged, &inventory.ReorderAlertStatusChangedEvent{})
	s.Register(inventory.EventTypePurchaseOrderDrafted, &inventory.PurchaseOrderDraftedEvent{})
	return s
}

// Register registers an event type for deserialization.
// The eventType should match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Wrap builds the envelope for an event
func (s *EventSerializer) Wrap(event shared.DomainEvent) (Envelope, error) {
	payload, err := s.Serialize(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateKey:  event.AggregateKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}, nil
}

// Deserialize deserializes JSON bytes to a domain event
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()

	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}

	return event, nil
}

// Unwrap decodes an envelope back into its concrete event
func (s *EventSerializer) Unwrap(env Envelope) (shared.DomainEvent, error) {
	return s.Deserialize(env.Type, env.Payload)
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
