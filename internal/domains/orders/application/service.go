package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

// Health thresholds: an internal error within the last 10s marks the service
// unhealthy, within the last 60s degraded.
const (
	unhealthyWindow = 10 * time.Second
	degradedWindow  = 60 * time.Second
)

// Snapshot page pushed to freshly connected viewers.
const (
	snapshotPage     = 1
	snapshotPageSize = 20
)

// Service is the order coordinator: the single mutation gateway over the
// repository. Every successful mutation produces exactly one notification of
// the matching kind; notification failures are logged and swallowed.
type Service struct {
	repo     ports.Repository
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	errMu       sync.Mutex
	lastErrorAt time.Time
}

type Option func(*Service)

// WithLogger injects a slog logger for notification failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides order id generation. Test hook.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// NewService wires the coordinator with its repository and notifier.
func NewService(repo ports.Repository, notifier ports.Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		newID:    newOrderID,
	}
	if s.notifier == nil {
		s.notifier = ports.NoopNotifier
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// newOrderID builds a collision-resistant order id. UUIDv7 keeps ids roughly
// time-ordered while staying unguessable.
func newOrderID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "ORD-" + id.String()
}

// CreateOrder assigns an id, stores the order, and broadcasts the creation.
func (s *Service) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(s.newID(), input.Address, input.Status, input.CollectorName)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		s.recordStoreError(err)
		return nil, mapError(err)
	}
	s.notify(ctx, "order-created", saved, s.notifier.OrderCreated)
	return saved, nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// UpdateOrder merges partial fields into an existing order and broadcasts the
// merged entity.
func (s *Service) UpdateOrder(ctx context.Context, input types.UpdateOrderInput) (*domain.Order, error) {
	merged, err := s.repo.Update(ctx, input.ID, input.Patch)
	if err != nil {
		s.recordStoreError(err)
		return nil, mapError(err)
	}
	s.notify(ctx, "order-update", merged, s.notifier.OrderUpdated)
	return merged, nil
}

// DeleteOrder removes an order. The pre-delete snapshot feeds the deletion
// notification because the store delete does not return the entity.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.recordStoreError(err)
		return mapError(err)
	}
	s.notify(ctx, "order-deleted", snapshot, s.notifier.OrderDeleted)
	return nil
}

// ListOrders runs the filter/search/paginate query.
func (s *Service) ListOrders(ctx context.Context, filters types.OrderFilters, page types.PageRequest) (*types.OrderPage, error) {
	result, err := s.repo.Query(ctx, filters, page)
	if err != nil {
		s.recordError(err)
		return nil, mapError(err)
	}
	return result, nil
}

// StatusCounts aggregates orders per status, covering all five statuses.
func (s *Service) StatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.recordError(err)
		return nil, mapError(err)
	}
	return counts, nil
}

// CreateOrders is the best-effort bulk create. Each element is attempted
// independently and notified individually on success.
func (s *Service) CreateOrders(ctx context.Context, inputs []types.CreateOrderInput) (*types.BulkResult, error) {
	result := &types.BulkResult{}
	for i, input := range inputs {
		saved, err := s.CreateOrder(ctx, input)
		if err != nil {
			result.Failed = append(result.Failed, types.BulkItemFailure{Index: i, Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, saved)
	}
	return result, nil
}

// UpdateOrders is the best-effort bulk update.
func (s *Service) UpdateOrders(ctx context.Context, inputs []types.UpdateOrderInput) (*types.BulkResult, error) {
	result := &types.BulkResult{}
	for i, input := range inputs {
		merged, err := s.UpdateOrder(ctx, input)
		if err != nil {
			result.Failed = append(result.Failed, types.BulkItemFailure{Index: i, ID: input.ID, Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, merged)
	}
	return result, nil
}

// DeleteOrders is the best-effort bulk delete. Snapshots are resolved before
// mutating so deletion notifications can carry the removed entities.
func (s *Service) DeleteOrders(ctx context.Context, ids []string) (*types.BulkResult, error) {
	result := &types.BulkResult{}
	for i, id := range ids {
		snapshot, err := s.repo.GetByID(ctx, id)
		if err != nil {
			result.Failed = append(result.Failed, types.BulkItemFailure{Index: i, ID: id, Err: mapError(err)})
			continue
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			s.recordStoreError(err)
			result.Failed = append(result.Failed, types.BulkItemFailure{Index: i, ID: id, Err: mapError(err)})
			continue
		}
		s.notify(ctx, "order-deleted", snapshot, s.notifier.OrderDeleted)
		result.Succeeded = append(result.Succeeded, snapshot)
		result.DeletedCount++
	}
	return result, nil
}

// Health derives the tri-state service health from error recency plus the
// current order and session counts.
func (s *Service) Health(ctx context.Context) (*types.HealthSnapshot, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.recordError(err)
		count = 0
	}
	snapshot := &types.HealthSnapshot{
		Status:         types.HealthHealthy,
		OrderCount:     count,
		ActiveSessions: s.notifier.ActiveSessions(),
	}
	s.errMu.Lock()
	lastErr := s.lastErrorAt
	s.errMu.Unlock()
	if !lastErr.IsZero() {
		millis := lastErr.UnixMilli()
		snapshot.LastErrorAt = &millis
		since := s.now().Sub(lastErr)
		switch {
		case since <= unhealthyWindow:
			snapshot.Status = types.HealthUnhealthy
		case since <= degradedWindow:
			snapshot.Status = types.HealthDegraded
		}
	}
	return snapshot, nil
}

// FirstPage returns the default snapshot page pushed to new viewer sessions.
func (s *Service) FirstPage(ctx context.Context) (*types.OrderPage, error) {
	return s.ListOrders(ctx, types.OrderFilters{}, types.PageRequest{
		Page:          snapshotPage,
		PageSize:      snapshotPageSize,
		SortField:     types.SortByLastUpdated,
		SortDirection: types.SortDesc,
	})
}

// notify delivers one event and swallows delivery failures; fan-out is
// fire-and-report, never transactional with the mutation.
func (s *Service) notify(ctx context.Context, kind string, order *domain.Order, deliver func(context.Context, *domain.Order) error) {
	if err := deliver(ctx, order); err != nil {
		s.logger.Warn("notification delivery failed",
			slog.String("event", kind),
			slog.String("order.id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}

// recordStoreError feeds the health error clock. Not-found and duplicate-id
// are caller mistakes, not internal failures, and do not count.
func (s *Service) recordStoreError(err error) {
	if err == nil || errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrDuplicateID) {
		return
	}
	s.recordError(err)
}

func (s *Service) recordError(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	s.lastErrorAt = s.now()
	s.errMu.Unlock()
}

var _ ports.Service = (*Service)(nil)
