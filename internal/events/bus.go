package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSeriesIngested    EventType = "SERIES_INGESTED"
	EventAnalysisCompleted EventType = "ANALYSIS_COMPLETED"
	EventScanStarted       EventType = "SCAN_STARTED"
	EventScanCompleted     EventType = "SCAN_COMPLETED"
	EventError             EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
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

// Publish sends an event to all subscribers. Subscribers run in their
// own goroutines so a slow consumer never blocks a publisher.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishSeriesIngested publishes a series ingestion event
func (eb *EventBus) PublishSeriesIngested(symbol, timeframe string, candles int) {
	eb.Publish(Event{
		Type: EventSeriesIngested,
		Data: map[string]interface{}{
			"symbol":    symbol,
			"timeframe": timeframe,
			"candles":   candles,
		},
	})
}

// PublishScanCompleted publishes a scan completion event
func (eb *EventBus) PublishScanCompleted(scanID string, symbolsScanned, candidates, rejected int) {
	eb.Publish(Event{
		Type: EventScanCompleted,
		Data: map[string]interface{}{
			"scan_id":         scanID,
			"symbols_scanned": symbolsScanned,
			"candidates":      candidates,
			"rejected":        rejected,
		},
	})
}
