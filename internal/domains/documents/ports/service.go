package ports

import (
	"context"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

// Service exposes the generic collection use cases to adapters.
type Service interface {
	List(ctx context.Context, collection string) ([]domain.Document, error)
	Create(ctx context.Context, collection string, doc domain.Document) (domain.Document, error)
	// Get returns nil, nil when the identifier matches nothing.
	Get(ctx context.Context, collection, id string) (domain.Document, error)
	// Update reports whether exactly one document matched.
	Update(ctx context.Context, collection, id string, partial domain.Document) (bool, error)
	// Delete reports whether exactly one document was removed.
	Delete(ctx context.Context, collection, id string) (bool, error)
}
