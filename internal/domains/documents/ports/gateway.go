package ports

import (
	"context"
	"errors"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

var (
	// ErrUnavailable is returned by every gateway call made before the store is ready.
	ErrUnavailable = errors.New("document store unavailable")
)

// UpdateResult reports how many documents an update matched.
type UpdateResult struct {
	MatchedCount int64
}

// DeleteResult reports how many documents were removed.
type DeleteResult struct {
	DeletedCount int64
}

// BulkResult aggregates the outcome of a bulk write.
type BulkResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// Gateway is the document store capability consumed by every bounded context.
type Gateway interface {
	Collection(name string) domain.Collection
	// ParseID converts a raw path segment into the store's identifier type.
	ParseID(raw string) (domain.ID, error)
	Find(ctx context.Context, c domain.Collection, filter domain.Filter) ([]domain.Document, error)
	// FindOne returns nil, nil when no document carries id.
	FindOne(ctx context.Context, c domain.Collection, id domain.ID) (domain.Document, error)
	InsertOne(ctx context.Context, c domain.Collection, doc domain.Document) (domain.Document, error)
	UpdateOne(ctx context.Context, c domain.Collection, id domain.ID, set domain.Document) (UpdateResult, error)
	DeleteOne(ctx context.Context, c domain.Collection, id domain.ID) (DeleteResult, error)
	BulkWrite(ctx context.Context, c domain.Collection, ops []domain.UpdateOp) (BulkResult, error)
}
