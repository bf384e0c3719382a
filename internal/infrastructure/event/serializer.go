package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
)

// EventSerializer converts domain events to and from their JSON outbox payload
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewSettlementEventSerializer returns a serializer that knows every settlement event
func NewSettlementEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(settlement.EventTypeSettlementRequested, &settlement.SettlementRequestedEvent{})
	s.Register(settlement.EventTypeSettlementProcessing, &settlement.SettlementProcessingEvent{})
	s.Register(settlement.EventTypeSettlementCompleted, &settlement.SettlementCompletedEvent{})
	s.Register(settlement.EventTypeSettlementRejected, &settlement.SettlementRejectedEvent{})
	s.Register(settlement.EventTypeConsistencyViolation, &settlement.ConsistencyViolationEvent{})
	s.Register(settlement.EventTypeSettlementHoldRelease, &settlement.HoldReleasedEvent{})
	return s
}

// Register maps an event type name to the Go type it deserializes into
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes a domain event to JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize rebuilds a registered event from its JSON payload
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
