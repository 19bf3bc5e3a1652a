package memory

import (
	"context"
	"sync"

	"github.com/Apurer/school-activities-api/internal/domains/search/domain"
	"github.com/Apurer/school-activities-api/internal/domains/search/ports"
)

var _ ports.ActivityLog = (*ActivityLog)(nil)

// ActivityLog keeps searches in process memory for development and tests.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []domain.Activity
}

// NewActivityLog constructs an empty log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (l *ActivityLog) Record(ctx context.Context, activity domain.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	activity.MatchedIDs = append([]string(nil), activity.MatchedIDs...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, activity)
	return nil
}

func (l *ActivityLog) Recent(_ context.Context, limit int) ([]domain.Activity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]domain.Activity, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		entry := l.entries[i]
		entry.MatchedIDs = append([]string(nil), entry.MatchedIDs...)
		out = append(out, entry)
	}
	return out, nil
}
