package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore provides an in-memory implementation for development and tests.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
	ttl     time.Duration
	now     func() time.Time
}

// NewIdempotencyStore constructs an empty in-memory store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[string]ports.IdempotencyRecord{},
		ttl:     ports.IdempotencyTTL,
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *IdempotencyStore) Reserve(_ context.Context, key, requestHash string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.records[key]; ok && now.Sub(existing.CreatedAt) < s.ttl {
		copy := existing
		if existing.RequestHash != requestHash {
			return &copy, ports.ErrIdempotencyConflict
		}
		if existing.State == ports.IdempotencyPending {
			return &copy, ports.ErrIdempotencyInFlight
		}
		return &copy, nil
	}
	record := ports.IdempotencyRecord{
		Key:         key,
		Token:       uuid.NewString(),
		RequestHash: requestHash,
		State:       ports.IdempotencyPending,
		CreatedAt:   now,
	}
	s.records[key] = record
	saved := record
	return &saved, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, token string, receipt ports.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok || record.Token != token {
		return ports.ErrReservationLost
	}
	record.State = ports.IdempotencyCompleted
	record.Receipt = &receipt
	s.records[key] = record
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok || record.Token != token {
		return ports.ErrReservationLost
	}
	if record.State == ports.IdempotencyPending {
		delete(s.records, key)
	}
	return nil
}
