package ports

import (
	"context"
	"errors"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
)

var (
	// ErrNotFound signals an absent order. Internal callers treat it as a
	// normal outcome; only the HTTP boundary turns it into a 404.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateID signals a create with an id that is already stored.
	ErrDuplicateID = errors.New("order id already exists")
)

// Repository is the authoritative keyed order collection. The memory adapter
// never blocks; ctx exists for I/O-bound backends behind the same contract.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, filters types.OrderFilters, page types.PageRequest) (*types.OrderPage, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
	Count(ctx context.Context) (int, error)
}
