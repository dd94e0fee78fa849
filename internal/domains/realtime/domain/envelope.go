package domain

import "time"

// Server-to-client message kinds.
const (
	TypeInitialOrders = "initial-orders"
	TypeOrderCreated  = "order-created"
	TypeOrderUpdate   = "order-update"
	TypeOrderDeleted  = "order-deleted"
	TypePong          = "pong"
	TypeError         = "error"
)

// Client-to-server message kinds.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// BroadcastGroup is the named subscription group carrying order changes.
const BroadcastGroup = "orders"

// Envelope is the typed server-to-client event. Exactly one of Order or
// Orders is set for change events and the initial snapshot respectively.
type Envelope struct {
	Type      string    `json:"type"`
	Order     any       `json:"order,omitempty"`
	Orders    any       `json:"orders,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope stamps a change event.
func NewEnvelope(kind string, order any, now time.Time) Envelope {
	return Envelope{Type: kind, Order: order, Timestamp: now.UTC()}
}

// NewSnapshot stamps the initial-sync page sent once per connection.
func NewSnapshot(orders any, now time.Time) Envelope {
	return Envelope{Type: TypeInitialOrders, Orders: orders, Timestamp: now.UTC()}
}

// NewErrorAck builds the structured rejection sent instead of a raw
// disconnect.
func NewErrorAck(message string, now time.Time) Envelope {
	return Envelope{Type: TypeError, Error: message, Timestamp: now.UTC()}
}

// NewPong answers a client ping.
func NewPong(now time.Time) Envelope {
	return Envelope{Type: TypePong, Timestamp: now.UTC()}
}

// InboundMessage is the fixed client message shape; unknown fields are
// dropped at the JSON boundary.
type InboundMessage struct {
	Type   string `json:"type"`
	Secret string `json:"secret,omitempty"`
}
