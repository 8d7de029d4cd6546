package events

import (
	"encoding/json"
	"sync"
	"time"

	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
)

// BookingEvents lists every event type the booking service publishes.
var BookingEvents = []string{EventBookingCreated, EventBookingCancelled, EventBookingCompleted}

// BookingEventPayload is the booking snapshot delivered to notification sinks.
type BookingEventPayload struct {
	Event       string    `json:"event"`
	BookingID   int64     `json:"booking_id"`
	StudentID   int64     `json:"student_id"`
	MentorID    int64     `json:"mentor_id"`
	MentorName  string    `json:"mentor_name,omitempty"`
	SessionDate string    `json:"session_date"`
	TimeSlot    string    `json:"time_slot"`
	Topic       string    `json:"topic,omitempty"`
	Status      string    `json:"status"`
	ActorID     int64     `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewBookingPayload snapshots b for eventType.
func NewBookingPayload(eventType string, b *models.Booking, mentorName string, actorID int64) BookingEventPayload {
	return BookingEventPayload{
		Event:       eventType,
		BookingID:   b.ID,
		StudentID:   b.StudentID,
		MentorID:    b.MentorID,
		MentorName:  mentorName,
		SessionDate: b.SessionDate,
		TimeSlot:    b.TimeSlot,
		Topic:       b.Topic,
		Status:      string(b.Status),
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events. Handlers run synchronously
// on the publisher goroutine and must not block.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. logger may be nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for each of the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish notifies subscribers of the event type. Handler errors are logged
// and never returned to the publisher.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
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
