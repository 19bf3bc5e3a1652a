package application

import (
	"context"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

// Service proxies CRUD operations onto whichever collection the resolver binds.
type Service struct {
	gateway  ports.Gateway
	resolver *Resolver
}

type Option func(*Service)

// WithResolver replaces the default unrestricted resolver.
func WithResolver(r *Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

func NewService(gateway ports.Gateway, opts ...Option) *Service {
	s := &Service{gateway: gateway, resolver: NewResolver(gateway)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) List(ctx context.Context, collection string) ([]domain.Document, error) {
	c, err := s.resolver.Resolve(collection)
	if err != nil {
		return nil, err
	}
	docs, err := s.gateway.Find(ctx, c, domain.MatchAll())
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (s *Service) Create(ctx context.Context, collection string, doc domain.Document) (domain.Document, error) {
	c, err := s.resolver.Resolve(collection)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, mapError(domain.ErrNotAnObject)
	}
	body := doc.WithoutID()
	if err := body.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.gateway.InsertOne(ctx, c, body)
}

func (s *Service) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	c, err := s.resolver.Resolve(collection)
	if err != nil {
		return nil, err
	}
	parsed, err := s.gateway.ParseID(id)
	if err != nil {
		return nil, mapError(err)
	}
	return s.gateway.FindOne(ctx, c, parsed)
}

// Update applies a field-level merge: only fields present in partial change.
func (s *Service) Update(ctx context.Context, collection, id string, partial domain.Document) (bool, error) {
	c, err := s.resolver.Resolve(collection)
	if err != nil {
		return false, err
	}
	parsed, err := s.gateway.ParseID(id)
	if err != nil {
		return false, mapError(err)
	}
	if partial == nil {
		return false, mapError(domain.ErrNotAnObject)
	}
	set := partial.WithoutID()
	if err := set.Validate(); err != nil {
		return false, mapError(err)
	}
	if len(set) == 0 {
		// An empty $set is rejected by most stores; report whether the target exists instead.
		doc, err := s.gateway.FindOne(ctx, c, parsed)
		if err != nil {
			return false, err
		}
		return doc != nil, nil
	}
	result, err := s.gateway.UpdateOne(ctx, c, parsed, set)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (s *Service) Delete(ctx context.Context, collection, id string) (bool, error) {
	c, err := s.resolver.Resolve(collection)
	if err != nil {
		return false, err
	}
	parsed, err := s.gateway.ParseID(id)
	if err != nil {
		return false, mapError(err)
	}
	result, err := s.gateway.DeleteOne(ctx, c, parsed)
	if err != nil {
		return false, err
	}
	return result.DeletedCount == 1, nil
}

var _ ports.Service = (*Service)(nil)
