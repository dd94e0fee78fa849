package ports

import (
	"context"

	"github.com/orderboard/api-server/internal/domains/orders/domain"
)

// Notifier fans order change events out to connected viewers. Delivery is
// at-most-once; errors are reported to the caller for logging only and must
// never influence the outcome of the mutation that produced the event.
type Notifier interface {
	OrderCreated(ctx context.Context, order *domain.Order) error
	OrderUpdated(ctx context.Context, order *domain.Order) error
	OrderDeleted(ctx context.Context, order *domain.Order) error
	// ActiveSessions reports the connected viewer count for health snapshots.
	ActiveSessions() int
}

// NoopNotifier is a safe default for boot paths and tests that do not care
// about fan-out.
var NoopNotifier Notifier = noopNotifier{}

type noopNotifier struct{}

func (noopNotifier) OrderCreated(context.Context, *domain.Order) error { return nil }
func (noopNotifier) OrderUpdated(context.Context, *domain.Order) error { return nil }
func (noopNotifier) OrderDeleted(context.Context, *domain.Order) error { return nil }
func (noopNotifier) ActiveSessions() int                               { return 0 }
