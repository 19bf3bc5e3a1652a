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

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/search/domain"
	"github.com/Apurer/school-activities-api/internal/domains/search/ports"
)

const tracerName = "github.com/Apurer/school-activities-api/internal/domains/search/adapters/observability/service"

// Service decorates the search port with tracing, logging, and metrics.
type Service struct {
	inner    ports.Service
	tracer   trace.Tracer
	logger   *slog.Logger
	searches metric.Int64Counter
	empty    metric.Int64Counter
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
		if m == nil {
			return
		}
		s.searches, _ = m.Int64Counter("search.service.queries", metric.WithDescription("Number of searches executed"))
		s.empty, _ = m.Int64Counter("search.service.empty", metric.WithDescription("Number of searches without matches"))
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
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

func (s *Service) ScopedSearch(ctx context.Context, query string) ([]docdomain.Document, error) {
	return s.observe(ctx, "Service.ScopedSearch", domain.ScopeLessons, query, s.inner.ScopedSearch)
}

func (s *Service) GlobalSearch(ctx context.Context, query string) ([]docdomain.Document, error) {
	return s.observe(ctx, "Service.GlobalSearch", domain.ScopeGlobal, query, s.inner.GlobalSearch)
}

func (s *Service) observe(
	ctx context.Context,
	spanName string,
	scope domain.Scope,
	query string,
	call func(context.Context, string) ([]docdomain.Document, error),
) ([]docdomain.Document, error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("search.scope", string(scope)),
		attribute.String("search.query", query),
	))
	defer span.End()

	docs, err := call(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.LogAttrs(ctx, slog.LevelError, "search failed",
			slog.String("scope", string(scope)),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.result.count", len(docs)))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "search executed",
		slog.String("scope", string(scope)),
		slog.String("query", query),
		slog.Int("count", len(docs)),
	)
	scopeAttr := metric.WithAttributes(attribute.String("search.scope", string(scope)))
	if s.searches != nil {
		s.searches.Add(ctx, 1, scopeAttr)
	}
	if len(docs) == 0 && s.empty != nil {
		s.empty.Add(ctx, 1, scopeAttr)
	}
	return docs, nil
}

var _ ports.Service = (*Service)(nil)
