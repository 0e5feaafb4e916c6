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

	"mrdinner/internal/core/application/usecases"
	"mrdinner/internal/core/application/usecases/commands"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/application/views"
)

const tracerName = "mrdinner/internal/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   usecases.OrderService
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner usecases.OrderService, opts ...Option) usecases.OrderService {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
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
	return s
}

func (s *Service) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (views.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.Int64("customer.id", cmd.CustomerID()),
		attribute.String("order.source", cmd.Channel().String()),
		attribute.Int("order.dinners", len(cmd.Packs())),
	))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.String("order.id", cmd.OrderID().String()), slog.Int64("customer.id", cmd.CustomerID()))
	result, err := s.inner.CreateOrder(ctx, cmd)
	if err != nil {
		return views.Order{}, s.handleError(ctx, span, "create_order", err, "failed to create order",
			slog.String("order.id", cmd.OrderID().String()))
	}
	s.metrics.recordOperation(ctx, "create_order")
	s.metrics.recordTotal(ctx, result.TotalCents)
	span.SetAttributes(attribute.Int64("order.total_cents", result.TotalCents))
	s.logInfo(ctx, "order created", slog.String("order.id", result.ID), slog.Int64("total_cents", result.TotalCents))
	return result, nil
}

func (s *Service) EditOrder(ctx context.Context, cmd commands.EditOrderCommand) (views.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.EditOrder", trace.WithAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.Bool("order.replace_lines", cmd.ReplacesLines()),
	))
	defer span.End()

	s.logInfo(ctx, "editing order", slog.String("order.id", cmd.OrderID().String()), slog.Bool("replace_lines", cmd.ReplacesLines()))
	result, err := s.inner.EditOrder(ctx, cmd)
	if err != nil {
		return views.Order{}, s.handleError(ctx, span, "edit_order", err, "failed to edit order",
			slog.String("order.id", cmd.OrderID().String()))
	}
	s.metrics.recordOperation(ctx, "edit_order")
	s.logInfo(ctx, "order edited", slog.String("order.id", result.ID), slog.Int64("total_cents", result.TotalCents))
	return result, nil
}

func (s *Service) ExecuteAction(ctx context.Context, cmd commands.ExecuteOrderActionCommand) (views.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ExecuteAction", trace.WithAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.String("order.action", cmd.Action().String()),
		attribute.String("staff.actor", cmd.Actor()),
	))
	defer span.End()

	s.logInfo(ctx, "executing order action",
		slog.String("order.id", cmd.OrderID().String()),
		slog.String("action", cmd.Action().String()),
		slog.String("actor", cmd.Actor()))
	result, err := s.inner.ExecuteAction(ctx, cmd)
	if err != nil {
		return views.Order{}, s.handleError(ctx, span, "execute_action", err, "failed to execute order action",
			slog.String("order.id", cmd.OrderID().String()), slog.String("action", cmd.Action().String()))
	}
	s.metrics.recordOperation(ctx, "execute_action")
	s.metrics.recordAction(ctx, cmd.Action().String(), result.Status)
	span.SetAttributes(attribute.String("order.status", result.Status))
	s.logInfo(ctx, "order action executed", slog.String("order.id", result.ID), slog.String("status", result.Status))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, query queries.GetOrderQuery) (views.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder",
		trace.WithAttributes(attribute.String("order.id", query.OrderID().String())))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, query)
	if err != nil {
		return views.Order{}, s.handleError(ctx, span, "get_order", err, "failed to load order",
			slog.String("order.id", query.OrderID().String()))
	}
	s.metrics.recordOperation(ctx, "get_order")
	return result, nil
}

func (s *Service) ListCustomerOrders(ctx context.Context, query queries.ListCustomerOrdersQuery) ([]views.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListCustomerOrders", trace.WithAttributes(
		attribute.Int64("customer.id", query.CustomerID()),
		attribute.Int("query.limit", query.Limit()),
	))
	defer span.End()

	result, err := s.inner.ListCustomerOrders(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, "list_customer_orders", err, "failed to list customer orders",
			slog.Int64("customer.id", query.CustomerID()))
	}
	s.metrics.recordOperation(ctx, "list_customer_orders")
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListRecentOrders(ctx context.Context, query queries.ListRecentOrdersQuery) ([]views.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListRecentOrders", trace.WithAttributes(
		attribute.Int("query.statuses", len(query.Statuses())),
		attribute.Int("query.limit", query.Limit()),
	))
	defer span.End()

	result, err := s.inner.ListRecentOrders(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, "list_recent_orders", err, "failed to list recent orders")
	}
	s.metrics.recordOperation(ctx, "list_recent_orders")
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) PreviewPrice(ctx context.Context, query queries.PreviewPriceQuery) (views.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PreviewPrice", trace.WithAttributes(
		attribute.Int("order.dinners", len(query.Packs())),
		attribute.Int("order.coupons", len(query.CouponCodes())),
	))
	defer span.End()

	result, err := s.inner.PreviewPrice(ctx, query)
	if err != nil {
		return views.Quote{}, s.handleError(ctx, span, "preview_price", err, "failed to preview price")
	}
	s.metrics.recordOperation(ctx, "preview_price")
	span.SetAttributes(
		attribute.Int64("quote.subtotal_cents", result.SubtotalCents),
		attribute.Int64("quote.total_cents", result.TotalCents),
	)
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(
	ctx context.Context,
	span trace.Span,
	operation string,
	err error,
	msg string,
	attrs ...slog.Attr,
) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.recordFailure(ctx, operation)
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	operations  metric.Int64Counter
	failures    metric.Int64Counter
	actions     metric.Int64Counter
	orderTotals metric.Int64Histogram
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	operations, _ := m.Int64Counter("orders.service.operations", metric.WithDescription("Number of successful order operations"))
	failures, _ := m.Int64Counter("orders.service.failures", metric.WithDescription("Number of failed order operations"))
	actions, _ := m.Int64Counter("orders.service.actions", metric.WithDescription("Number of staff actions applied to orders"))
	orderTotals, _ := m.Int64Histogram("orders.service.total_cents",
		metric.WithDescription("Order totals at creation"), metric.WithUnit("cents"))
	return serviceMetrics{operations: operations, failures: failures, actions: actions, orderTotals: orderTotals}
}

func (m serviceMetrics) recordOperation(ctx context.Context, operation string) {
	if m.operations != nil {
		m.operations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

func (m serviceMetrics) recordFailure(ctx context.Context, operation string) {
	if m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

func (m serviceMetrics) recordAction(ctx context.Context, action, status string) {
	if m.actions != nil {
		m.actions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.action", action),
			attribute.String("order.status", status),
		))
	}
}

func (m serviceMetrics) recordTotal(ctx context.Context, cents int64) {
	if m.orderTotals != nil {
		m.orderTotals.Record(ctx, cents)
	}
}

var _ usecases.OrderService = (*Service)(nil)
