package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventSearchCompleted  = "search_completed"
	EventCustomerCreated  = "customer_created"
	EventBookingConfirmed = "booking_confirmed"
	EventRentingConfirmed = "renting_confirmed"
	EventBookingFailed    = "booking_failed"
)

// StayEventPayload describes the confirmed stay for event consumers.
type StayEventPayload struct {
	RecordID   int64     `json:"record_id"`
	Kind       string    `json:"kind"` // booking or renting
	RoomID     int64     `json:"room_id"`
	CustomerID int64     `json:"customer_id"`
	EmployeeID int64     `json:"employee_id,omitempty"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Status     string    `json:"status,omitempty"`
	HotelName  string    `json:"hotel_name,omitempty"`
	Price      float64   `json:"price,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SearchEventPayload summarizes a finished search.
type SearchEventPayload struct {
	Sequence  uint64 `json:"sequence"`
	RoomCount int    `json:"room_count"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
