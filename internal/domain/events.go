package domain

import (
	"context"
	"time"
)

// EventType identifies a domain event payload.
type EventType string

const (
	EventRestaurantCreated        EventType = "restaurant.created"
	EventRestaurantStatusChanged  EventType = "restaurant.status.changed"
	EventTableAdded               EventType = "table.added"
	EventTableAvailabilityChanged EventType = "table.availability.changed"
	EventReservationCreated       EventType = "reservation.created"
	EventReservationStatusChanged EventType = "reservation.status.changed"
	EventCapacityThresholdReached EventType = "capacity.threshold.reached"
)

// Event is the envelope published after a successful domain mutation. It
// carries the aggregate ids, the relevant before/after values and the
// occurrence timestamp.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	RestaurantID string    `json:"restaurant_id"`
	TableID      string    `json:"table_id,omitempty"`
	SlotID       string    `json:"slot_id,omitempty"`
	Previous     string    `json:"previous,omitempty"`
	Current      string    `json:"current,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher delivers domain events to the notification collaborator.
// Delivery is fire-and-forget: a publish failure must never roll back the
// domain mutation that already succeeded.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NewEvent stamps an event envelope with an id and occurrence time.
func NewEvent(clock Clock, eventType EventType, restaurantID string) Event {
	if clock == nil {
		clock = SystemClock{}
	}
	return Event{
		ID:           NewID(),
		Type:         eventType,
		RestaurantID: restaurantID,
		OccurredAt:   clock.Now(),
	}
}
