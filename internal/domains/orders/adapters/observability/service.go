package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	orderapp "github.com/Apurer/school-activities-api/internal/domains/orders/application"
	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders port with tracing, logging, and metrics.
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

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
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
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// PlaceOrder places an order with instrumentation.
func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "Service.PlaceOrder", trace.WithAttributes(
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
	))
	defer span.End()

	receipt, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		attrs := []slog.Attr{}
		var partial *orderapp.PartialPlacementError
		if errors.As(err, &partial) {
			span.SetAttributes(attribute.String("order.id", partial.OrderID), attribute.String("order.status", string(partial.Status)))
			attrs = append(attrs, slog.String("order.id", partial.OrderID), slog.String("status", string(partial.Status)))
			s.metrics.recordPartial(ctx)
		}
		return nil, s.handleError(ctx, span, err, "failed to place order", attrs...)
	}
	span.SetAttributes(attribute.String("order.id", receipt.OrderID), attribute.String("order.status", string(receipt.Status)))
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed", slog.String("order.id", receipt.OrderID), slog.String("status", string(receipt.Status)))
	return receipt, nil
}

// Reconcile settles pending orders with instrumentation.
func (s *Service) Reconcile(ctx context.Context) (*ports.ReconcileReport, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Reconcile")
	defer span.End()

	report, err := s.inner.Reconcile(ctx)
	if report != nil {
		span.SetAttributes(
			attribute.Int("orders.pending", report.Pending),
			attribute.Int("orders.settled", report.Settled),
			attribute.Int("orders.failed", report.Failed),
		)
	}
	if err != nil {
		return report, s.handleError(ctx, span, err, "failed to reconcile orders")
	}
	s.logInfo(ctx, "orders reconciled",
		slog.Int("pending", report.Pending),
		slog.Int("settled", report.Settled),
		slog.Int("failed", report.Failed),
	)
	return report, nil
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

type serviceMetrics struct {
	placed  metric.Int64Counter
	partial metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	partial, _ := m.Int64Counter("orders.service.partial", metric.WithDescription("Number of orders left inventory-pending"))
	return serviceMetrics{placed: placed, partial: partial}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.placed != nil {
		m.placed.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordPartial(ctx context.Context) {
	if m.partial != nil {
		m.partial.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
