package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventSyncStarted       EventType = "sync_started"
	EventReferencesSynced  EventType = "references_synced"
	EventCategoryStarted   EventType = "category_started"
	EventCategorySkipped   EventType = "category_skipped"
	EventBatchProcessed    EventType = "batch_processed"
	EventBatchAbandoned    EventType = "batch_abandoned"
	EventTokenReset        EventType = "token_reset"
	EventQuestionDiverged  EventType = "question_diverged"
	EventCategoryCompleted EventType = "category_completed"
	EventSyncFinished      EventType = "sync_finished"
	EventTrimCompleted     EventType = "trim_completed"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events.
// A nil *EventBus discards everything published to it.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
