package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventPipelineProgress EventType = "PIPELINE_PROGRESS"
	EventPipelineState    EventType = "PIPELINE_STATE"
	EventSignalGenerated  EventType = "SIGNAL_GENERATED"
	EventSignalFailed     EventType = "SIGNAL_FAILED"
	EventOutcomeRecorded  EventType = "OUTCOME_RECORDED"
	EventCooldownTick     EventType = "COOLDOWN_TICK"
	EventSettingsSaved    EventType = "SETTINGS_SAVED"
	EventUserLogin        EventType = "USER_LOGIN"
	EventUserLogout       EventType = "USER_LOGOUT"
	EventError            EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishProgress publishes a pipeline progress update
func (eb *EventBus) PublishProgress(userID string, step int, totalSteps int, message string) {
	eb.Publish(Event{
		Type:   EventPipelineProgress,
		UserID: userID,
		Data: map[string]interface{}{
			"step":        step,
			"total_steps": totalSteps,
			"message":     message,
		},
	})
}

// PublishState publishes a pipeline state transition
func (eb *EventBus) PublishState(userID string, state string) {
	eb.Publish(Event{
		Type:   EventPipelineState,
		UserID: userID,
		Data: map[string]interface{}{
			"state": state,
		},
	})
}

// PublishSignalGenerated publishes a completed signal
func (eb *EventBus) PublishSignalGenerated(userID, tradeID, asset, direction, riskLevel string) {
	eb.Publish(Event{
		Type:   EventSignalGenerated,
		UserID: userID,
		Data: map[string]interface{}{
			"trade_id":   tradeID,
			"asset":      asset,
			"direction":  direction,
			"risk_level": riskLevel,
		},
	})
}

// PublishSignalFailed publishes a pipeline failure
func (eb *EventBus) PublishSignalFailed(userID, asset, reason string) {
	eb.Publish(Event{
		Type:   EventSignalFailed,
		UserID: userID,
		Data: map[string]interface{}{
			"asset":  asset,
			"reason": reason,
		},
	})
}

// PublishOutcomeRecorded publishes a trade outcome update
func (eb *EventBus) PublishOutcomeRecorded(userID, tradeID, outcome string) {
	eb.Publish(Event{
		Type:   EventOutcomeRecorded,
		UserID: userID,
		Data: map[string]interface{}{
			"trade_id": tradeID,
			"outcome":  outcome,
		},
	})
}

// PublishCooldownTick publishes the remaining cooldown seconds
func (eb *EventBus) PublishCooldownTick(userID string, remaining int) {
	eb.Publish(Event{
		Type:   EventCooldownTick,
		UserID: userID,
		Data: map[string]interface{}{
			"remaining": remaining,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(userID, source, message string) {
	eb.Publish(Event{
		Type:   EventError,
		UserID: userID,
		Data: map[string]interface{}{
			"source":  source,
			"message": message,
		},
	})
}
