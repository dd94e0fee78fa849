package application

import (
	"context"
	"time"

	ordersdomain "github.com/orderboard/api-server/internal/domains/orders/domain"
	ordersports "github.com/orderboard/api-server/internal/domains/orders/ports"
	"github.com/orderboard/api-server/internal/domains/realtime/domain"
)

var _ ordersports.Notifier = (*Notifier)(nil)

// Notifier adapts the hub to the order coordinator's notification port.
// Every mutated order maps 1:1 to one envelope on the orders group; there is
// no batching or coalescing, bulk operations included.
type Notifier struct {
	hub     *Hub
	project func(*ordersdomain.Order) any
	now     func() time.Time
}

// NewNotifier wires the fan-out adapter. project converts the domain entity
// to its wire representation.
func NewNotifier(hub *Hub, project func(*ordersdomain.Order) any) *Notifier {
	return &Notifier{hub: hub, project: project, now: time.Now}
}

func (n *Notifier) OrderCreated(_ context.Context, order *ordersdomain.Order) error {
	n.broadcast(domain.TypeOrderCreated, order)
	return nil
}

func (n *Notifier) OrderUpdated(_ context.Context, order *ordersdomain.Order) error {
	n.broadcast(domain.TypeOrderUpdate, order)
	return nil
}

func (n *Notifier) OrderDeleted(_ context.Context, order *ordersdomain.Order) error {
	n.broadcast(domain.TypeOrderDeleted, order)
	return nil
}

func (n *Notifier) ActiveSessions() int {
	return n.hub.SessionCount()
}

func (n *Notifier) broadcast(kind string, order *ordersdomain.Order) {
	payload := any(order)
	if n.project != nil {
		payload = n.project(order)
	}
	n.hub.BroadcastGroup(domain.BroadcastGroup, domain.NewEnvelope(kind, payload, n.now()))
}
