package domain

import "time"

// Event is the base interface for order change events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderCreated is raised when a new order enters the store.
type OrderCreated struct {
	BaseEvent
	Order Order
}

// EventName returns the event type identifier.
func (e OrderCreated) EventName() string {
	return "orders.order.created"
}

// OrderUpdated is raised after a partial update is merged.
type OrderUpdated struct {
	BaseEvent
	Order          Order
	PreviousStatus Status
}

// EventName returns the event type identifier.
func (e OrderUpdated) EventName() string {
	return "orders.order.updated"
}

// OrderDeleted carries the snapshot taken before removal.
type OrderDeleted struct {
	BaseEvent
	Order Order
}

// EventName returns the event type identifier.
func (e OrderDeleted) EventName() string {
	return "orders.order.deleted"
}
