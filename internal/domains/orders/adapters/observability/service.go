package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

const tracerName = "github.com/orderboard/api-server/internal/domains/orders/adapters/observability/service"

// Service decorates the order coordinator with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core coordinator.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreateOrder stores a new order with instrumentation.
func (s *Service) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateOrder", attribute.String("order.status", string(input.Status)))
	defer span.End()

	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	s.metrics.recordCreated(ctx, result.Status)
	s.logInfo(ctx, "order created", slog.String("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.String("order.id", id))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	return result, nil
}

// UpdateOrder merges partial fields into an existing order.
func (s *Service) UpdateOrder(ctx context.Context, input types.UpdateOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateOrder", attribute.String("order.id", input.ID))
	defer span.End()

	result, err := s.inner.UpdateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order", slog.String("order.id", input.ID))
	}
	s.metrics.recordUpdated(ctx, result.Status)
	s.logInfo(ctx, "order updated", slog.String("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteOrder", attribute.String("order.id", id))
	defer span.End()

	if err := s.inner.DeleteOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.String("order.id", id))
	}
	s.metrics.recordDeleted(ctx, 1)
	s.logInfo(ctx, "order deleted", slog.String("order.id", id))
	return nil
}

// ListOrders runs the filtered paginated query.
func (s *Service) ListOrders(ctx context.Context, filters types.OrderFilters, page types.PageRequest) (*types.OrderPage, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("query.page", page.Page),
		attribute.Int("query.page_size", page.PageSize),
	}
	if filters.Status != nil {
		attrs = append(attrs, attribute.String("query.status", string(*filters.Status)))
	}
	ctx, span := s.startSpan(ctx, "Service.ListOrders", attrs...)
	defer span.End()

	result, err := s.inner.ListOrders(ctx, filters, page)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("query.total_matching", result.TotalMatching))
	return result, nil
}

// StatusCounts aggregates orders per status.
func (s *Service) StatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	ctx, span := s.startSpan(ctx, "Service.StatusCounts")
	defer span.End()

	result, err := s.inner.StatusCounts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to aggregate order statuses")
	}
	return result, nil
}

// CreateOrders runs the best-effort bulk create.
func (s *Service) CreateOrders(ctx context.Context, inputs []types.CreateOrderInput) (*types.BulkResult, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateOrders", attribute.Int("bulk.requested", len(inputs)))
	defer span.End()

	result, err := s.inner.CreateOrders(ctx, inputs)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "bulk create failed")
	}
	s.recordBulk(ctx, span, "created", result)
	return result, nil
}

// UpdateOrders runs the best-effort bulk update.
func (s *Service) UpdateOrders(ctx context.Context, inputs []types.UpdateOrderInput) (*types.BulkResult, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateOrders", attribute.Int("bulk.requested", len(inputs)))
	defer span.End()

	result, err := s.inner.UpdateOrders(ctx, inputs)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "bulk update failed")
	}
	s.recordBulk(ctx, span, "updated", result)
	return result, nil
}

// DeleteOrders runs the best-effort bulk delete.
func (s *Service) DeleteOrders(ctx context.Context, ids []string) (*types.BulkResult, error) {
	ctx, span := s.startSpan(ctx, "Service.DeleteOrders", attribute.Int("bulk.requested", len(ids)))
	defer span.End()

	result, err := s.inner.DeleteOrders(ctx, ids)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "bulk delete failed")
	}
	s.metrics.recordDeleted(ctx, int64(result.DeletedCount))
	s.recordBulk(ctx, span, "deleted", result)
	return result, nil
}

// Health reports the coordinator health snapshot.
func (s *Service) Health(ctx context.Context) (*types.HealthSnapshot, error) {
	ctx, span := s.startSpan(ctx, "Service.Health")
	defer span.End()

	result, err := s.inner.Health(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "health snapshot failed")
	}
	span.SetAttributes(
		attribute.String("health.status", string(result.Status)),
		attribute.Int("health.sessions", result.ActiveSessions),
	)
	return result, nil
}

// FirstPage returns the initial viewer snapshot page.
func (s *Service) FirstPage(ctx context.Context) (*types.OrderPage, error) {
	ctx, span := s.startSpan(ctx, "Service.FirstPage")
	defer span.End()

	result, err := s.inner.FirstPage(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "initial snapshot failed")
	}
	return result, nil
}

func (s *Service) recordBulk(ctx context.Context, span trace.Span, op string, result *types.BulkResult) {
	span.SetAttributes(
		attribute.Int("bulk.succeeded", len(result.Succeeded)),
		attribute.Int("bulk.failed", len(result.Failed)),
	)
	s.logInfo(ctx, "bulk "+op,
		slog.Int("succeeded", len(result.Succeeded)),
		slog.Int("failed", len(result.Failed)),
	)
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersCreated metric.Int64Counter
	ordersUpdated metric.Int64Counter
	ordersDeleted metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	ordersUpdated, _ := m.Int64Counter("orders.service.updated", metric.WithDescription("Number of orders updated"))
	ordersDeleted, _ := m.Int64Counter("orders.service.deleted", metric.WithDescription("Number of orders deleted"))
	return serviceMetrics{
		ordersCreated: ordersCreated,
		ordersUpdated: ordersUpdated,
		ordersDeleted: ordersDeleted,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.ordersCreated, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordUpdated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.ordersUpdated, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordDeleted(ctx context.Context, n int64) {
	addCounter(ctx, m.ordersDeleted, n)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
