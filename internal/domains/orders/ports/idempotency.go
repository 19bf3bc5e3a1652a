package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyInFlight indicates another request holds the key.
	ErrIdempotencyInFlight = errors.New("idempotency key in flight")
	// ErrIdempotencyConflict indicates the key was used with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrReservationLost indicates the reservation token no longer owns the key.
	ErrReservationLost = errors.New("idempotency reservation lost")
)

// IdempotencyTTL bounds how long keys are remembered.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyState tracks a key through a placement.
type IdempotencyState string

const (
	IdempotencyPending   IdempotencyState = "pending"
	IdempotencyCompleted IdempotencyState = "completed"
)

// IdempotencyRecord associates a client key with the order it produced.
type IdempotencyRecord struct {
	Key         string           `json:"key"`
	Token       string           `json:"token"`
	RequestHash string           `json:"requestHash"`
	State       IdempotencyState `json:"state"`
	Receipt     *Receipt         `json:"receipt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// IdempotencyStore persists idempotency keys so retries can be replayed safely.
type IdempotencyStore interface {
	// Reserve claims key for a new placement and returns a pending record holding a
	// fresh token. A completed key returns its stored record instead. A key that is
	// still pending returns ErrIdempotencyInFlight; a key stored for a different
	// request hash returns ErrIdempotencyConflict.
	Reserve(ctx context.Context, key, requestHash string) (*IdempotencyRecord, error)
	// Complete stores the receipt when token still owns key.
	Complete(ctx context.Context, key, token string, receipt Receipt) error
	// Release forgets a pending key when token still owns it.
	Release(ctx context.Context, key, token string) error
}
