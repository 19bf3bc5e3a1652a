package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	docports "github.com/Apurer/school-activities-api/internal/domains/documents/ports"
	"github.com/Apurer/school-activities-api/internal/domains/search/domain"
	"github.com/Apurer/school-activities-api/internal/domains/search/ports"
)

const (
	// LessonsCollection holds the catalogue searched by ScopedSearch.
	LessonsCollection = "lessons"
	// DefaultGlobalCollection is searched by GlobalSearch unless overridden.
	DefaultGlobalCollection = LessonsCollection
)

var (
	scopedFields = []string{"title", "description"}
	globalFields = []string{"title", "subject", "location"}
)

// Service runs substring searches through the document gateway.
type Service struct {
	gateway          docports.Gateway
	activity         ports.ActivityLog
	globalCollection string
	rawPatterns      bool
	logger           *slog.Logger
	now              func() time.Time
}

type Option func(*Service)

// WithActivityLog records every search; recording failures are logged and dropped.
func WithActivityLog(log ports.ActivityLog) Option {
	return func(s *Service) {
		s.activity = log
	}
}

// WithGlobalCollection changes the collection behind GlobalSearch.
func WithGlobalCollection(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.globalCollection = name
		}
	}
}

// WithRawPatterns passes queries to the store unescaped.
func WithRawPatterns(raw bool) Option {
	return func(s *Service) {
		s.rawPatterns = raw
	}
}

// WithLogger injects the logger used for dropped activity records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(gateway docports.Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:          gateway,
		globalCollection: DefaultGlobalCollection,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) ScopedSearch(ctx context.Context, query string) ([]docdomain.Document, error) {
	return s.search(ctx, domain.ScopeLessons, LessonsCollection, scopedFields, query)
}

func (s *Service) GlobalSearch(ctx context.Context, query string) ([]docdomain.Document, error) {
	return s.search(ctx, domain.ScopeGlobal, s.globalCollection, globalFields, query)
}

func (s *Service) search(ctx context.Context, scope domain.Scope, collection string, fields []string, raw string) ([]docdomain.Document, error) {
	q, ok := domain.NewQuery(raw, !s.rawPatterns)
	if !ok {
		return nil, ErrMissingQuery
	}
	if s.rawPatterns {
		if _, err := regexp.Compile(q.Pattern()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
	}
	conds := make([]docdomain.Condition, 0, len(fields))
	for _, field := range fields {
		conds = append(conds, docdomain.Pattern(field, q.Pattern()))
	}
	docs, err := s.gateway.Find(ctx, s.gateway.Collection(collection), docdomain.AnyOf(conds...))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", scope, err)
	}
	if docs == nil {
		docs = []docdomain.Document{}
	}
	s.record(ctx, scope, q, docs)
	return docs, nil
}

func (s *Service) record(ctx context.Context, scope domain.Scope, q domain.Query, docs []docdomain.Document) {
	if s.activity == nil {
		return
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc[docdomain.IDField].(string); ok {
			ids = append(ids, id)
		}
	}
	activity := domain.Activity{
		Scope:       scope,
		Query:       q.String(),
		ResultCount: len(docs),
		MatchedIDs:  ids,
		RecordedAt:  s.now().UTC(),
	}
	if err := s.activity.Record(ctx, activity); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to record search activity",
			slog.String("scope", string(scope)),
			slog.String("query", q.String()),
			slog.String("error", err.Error()),
		)
	}
}

var _ ports.Service = (*Service)(nil)
