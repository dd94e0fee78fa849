package ports

import (
	"context"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
)

// Service exposes the order use cases to adapters. It is the only component
// allowed to mutate the order repository.
type Service interface {
	CreateOrder(ctx context.Context, input types.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, input types.UpdateOrderInput) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, filters types.OrderFilters, page types.PageRequest) (*types.OrderPage, error)
	StatusCounts(ctx context.Context) (map[domain.Status]int, error)

	CreateOrders(ctx context.Context, inputs []types.CreateOrderInput) (*types.BulkResult, error)
	UpdateOrders(ctx context.Context, inputs []types.UpdateOrderInput) (*types.BulkResult, error)
	DeleteOrders(ctx context.Context, ids []string) (*types.BulkResult, error)

	Health(ctx context.Context) (*types.HealthSnapshot, error)
	FirstPage(ctx context.Context) (*types.OrderPage, error)
}
