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

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

const tracerName = "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/observability/service"

// Service decorates the collection proxy with tracing, logging, and metrics.
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

func (s *Service) List(ctx context.Context, collection string) ([]domain.Document, error) {
	ctx, span := s.startSpan(ctx, "Service.List", attribute.String("collection", collection))
	defer span.End()

	docs, err := s.inner.List(ctx, collection)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list documents", slog.String("collection", collection))
	}
	span.SetAttributes(attribute.Int("documents.result.count", len(docs)))
	s.logDebug(ctx, "listed documents", slog.String("collection", collection), slog.Int("count", len(docs)))
	return docs, nil
}

func (s *Service) Create(ctx context.Context, collection string, doc domain.Document) (domain.Document, error) {
	ctx, span := s.startSpan(ctx, "Service.Create", attribute.String("collection", collection))
	defer span.End()

	created, err := s.inner.Create(ctx, collection, doc)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create document", slog.String("collection", collection))
	}
	s.metrics.recordCreated(ctx, collection)
	s.logInfo(ctx, "document created", slog.String("collection", collection), slog.Any("id", created[domain.IDField]))
	return created, nil
}

func (s *Service) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	ctx, span := s.startSpan(ctx, "Service.Get", attribute.String("collection", collection), attribute.String("document.id", id))
	defer span.End()

	doc, err := s.inner.Get(ctx, collection, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get document", slog.String("collection", collection), slog.String("id", id))
	}
	span.SetAttributes(attribute.Bool("document.found", doc != nil))
	return doc, nil
}

func (s *Service) Update(ctx context.Context, collection, id string, partial domain.Document) (bool, error) {
	ctx, span := s.startSpan(ctx, "Service.Update", attribute.String("collection", collection), attribute.String("document.id", id))
	defer span.End()

	matched, err := s.inner.Update(ctx, collection, id, partial)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to update document", slog.String("collection", collection), slog.String("id", id))
	}
	span.SetAttributes(attribute.Bool("document.matched", matched))
	if matched {
		s.metrics.recordUpdated(ctx, collection)
	}
	s.logInfo(ctx, "document update applied", slog.String("collection", collection), slog.String("id", id), slog.Bool("matched", matched))
	return matched, nil
}

func (s *Service) Delete(ctx context.Context, collection, id string) (bool, error) {
	ctx, span := s.startSpan(ctx, "Service.Delete", attribute.String("collection", collection), attribute.String("document.id", id))
	defer span.End()

	deleted, err := s.inner.Delete(ctx, collection, id)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to delete document", slog.String("collection", collection), slog.String("id", id))
	}
	span.SetAttributes(attribute.Bool("document.deleted", deleted))
	if deleted {
		s.metrics.recordDeleted(ctx, collection)
	}
	s.logInfo(ctx, "document delete applied", slog.String("collection", collection), slog.String("id", id), slog.Bool("deleted", deleted))
	return deleted, nil
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

func (s *Service) logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
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
	created metric.Int64Counter
	updated metric.Int64Counter
	deleted metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("documents.service.created", metric.WithDescription("Number of documents created"))
	updated, _ := m.Int64Counter("documents.service.updated", metric.WithDescription("Number of documents updated"))
	deleted, _ := m.Int64Counter("documents.service.deleted", metric.WithDescription("Number of documents deleted"))
	return serviceMetrics{created: created, updated: updated, deleted: deleted}
}

func (m serviceMetrics) recordCreated(ctx context.Context, collection string) {
	addCounter(ctx, m.created, 1, attribute.String("collection", collection))
}

func (m serviceMetrics) recordUpdated(ctx context.Context, collection string) {
	addCounter(ctx, m.updated, 1, attribute.String("collection", collection))
}

func (m serviceMetrics) recordDeleted(ctx context.Context, collection string) {
	addCounter(ctx, m.deleted, 1, attribute.String("collection", collection))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
