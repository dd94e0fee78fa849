package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is the in-memory authoritative order store. Reads and writes
// clone entities so callers can never mutate stored state directly.
type Repository struct {
	mu      sync.RWMutex
	orders  map[string]*record
	nextSeq uint64
	now     func() time.Time
}

// record pairs an order with its insertion sequence, the stable sort tiebreak.
type record struct {
	order *domain.Order
	seq   uint64
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]*record{}, now: time.Now}
}

// WithClock overrides the timestamp source. Test hook.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := *order
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[clone.ID]; exists {
		return nil, ports.ErrDuplicateID
	}
	clone.Touch(r.now())
	r.nextSeq++
	r.orders[clone.ID] = &record{order: &clone, seq: r.nextSeq}
	result := clone
	return &result, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *rec.order
	return &clone, nil
}

func (r *Repository) Update(_ context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	merged := *rec.order
	if err := patch.Apply(&merged); err != nil {
		return nil, err
	}
	merged.ID = id
	merged.Touch(r.now())
	rec.order = &merged
	clone := merged
	return &clone, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *Repository) Query(_ context.Context, filters types.OrderFilters, page types.PageRequest) (*types.OrderPage, error) {
	r.mu.RLock()
	matched := make([]*record, 0, len(r.orders))
	for _, rec := range r.orders {
		if matches(rec.order, filters) {
			clone := *rec.order
			matched = append(matched, &record{order: &clone, seq: rec.seq})
		}
	}
	r.mu.RUnlock()

	sortRecords(matched, page.SortField, page.SortDirection)

	total := len(matched)
	result := &types.OrderPage{
		Page:          page.Page,
		PageSize:      page.PageSize,
		TotalMatching: total,
	}
	if page.PageSize <= 0 {
		result.Page = 1
		result.TotalPages = 1
		result.Items = cloneAll(matched)
		return result, nil
	}
	result.TotalPages = int(math.Ceil(float64(total) / float64(page.PageSize)))
	if result.Page < 1 {
		result.Page = 1
	}
	start := (result.Page - 1) * page.PageSize
	if start >= total {
		result.Items = []*domain.Order{}
		return result, nil
	}
	end := start + page.PageSize
	if end > total {
		end = total
	}
	result.Items = cloneAll(matched[start:end])
	return result, nil
}

func (r *Repository) CountByStatus(_ context.Context) (map[domain.Status]int, error) {
	counts := make(map[domain.Status]int, len(domain.AllStatuses))
	for _, status := range domain.AllStatuses {
		counts[status] = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.orders {
		counts[rec.order.Status]++
	}
	return counts, nil
}

func (r *Repository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders), nil
}

func matches(order *domain.Order, filters types.OrderFilters) bool {
	if filters.Status != nil && order.Status != *filters.Status {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(filters.SearchText))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(order.ID), needle) ||
		strings.Contains(strings.ToLower(order.CollectorName), needle) ||
		strings.Contains(strings.ToLower(order.Address), needle)
}

func sortRecords(recs []*record, field, direction string) {
	if field == "" {
		field = types.SortByLastUpdated
	}
	desc := direction == types.SortDesc
	if direction == "" {
		// lastUpdated defaults to newest first, everything else ascending.
		desc = field == types.SortByLastUpdated
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		less, equal := compare(a.order, b.order, field)
		if equal {
			return a.seq < b.seq
		}
		if desc {
			return !less
		}
		return less
	})
}

func compare(a, b *domain.Order, field string) (less, equal bool) {
	switch field {
	case types.SortByID:
		return a.ID < b.ID, a.ID == b.ID
	case types.SortByCollector:
		x, y := strings.ToLower(a.CollectorName), strings.ToLower(b.CollectorName)
		return x < y, x == y
	case types.SortByAddress:
		x, y := strings.ToLower(a.Address), strings.ToLower(b.Address)
		return x < y, x == y
	case types.SortByStatus:
		return a.Status < b.Status, a.Status == b.Status
	default:
		return a.LastUpdated.Before(b.LastUpdated), a.LastUpdated.Equal(b.LastUpdated)
	}
}

func cloneAll(recs []*record) []*domain.Order {
	list := make([]*domain.Order, 0, len(recs))
	for _, rec := range recs {
		clone := *rec.order
		list = append(list, &clone)
	}
	return list
}
