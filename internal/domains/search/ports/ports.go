package ports

import (
	"context"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/search/domain"
)

// Service defines the search use cases exposed to adapters.
type Service interface {
	// ScopedSearch matches title or description in the lessons collection.
	ScopedSearch(ctx context.Context, query string) ([]docdomain.Document, error)
	// GlobalSearch matches title, subject or location in the configured collection.
	GlobalSearch(ctx context.Context, query string) ([]docdomain.Document, error)
}

// ActivityLog stores searches for later inspection.
type ActivityLog interface {
	Record(ctx context.Context, activity domain.Activity) error
	// Recent returns the newest activities first.
	Recent(ctx context.Context, limit int) ([]domain.Activity, error)
}
