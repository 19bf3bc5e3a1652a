// Package redis keeps order idempotency keys in Redis so every API replica sees them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const keyPrefix = "orders:idempotency:"

// getter is satisfied by both the client and a watched transaction.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// IdempotencyStore persists idempotency records as JSON values with a TTL.
type IdempotencyStore struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewIdempotencyStore wires a Redis-backed idempotency store.
func NewIdempotencyStore(client *goredis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ports.IdempotencyTTL, now: time.Now}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key, requestHash string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	record := ports.IdempotencyRecord{
		Key:         key,
		Token:       uuid.NewString(),
		RequestHash: requestHash,
		State:       ports.IdempotencyPending,
		CreatedAt:   s.now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	// The stored key can expire between SetNX and Get; one retry covers that window.
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := s.client.SetNX(ctx, keyPrefix+key, payload, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if claimed {
			return &record, nil
		}
		existing, err := s.load(ctx, s.client, key)
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if existing.RequestHash != requestHash {
			return existing, ports.ErrIdempotencyConflict
		}
		if existing.State == ports.IdempotencyPending {
			return existing, ports.ErrIdempotencyInFlight
		}
		return existing, nil
	}
	return nil, ports.ErrIdempotencyInFlight
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, token string, receipt ports.Receipt) error {
	return s.mutate(ctx, key, token, func(pipe goredis.Pipeliner, record *ports.IdempotencyRecord) error {
		record.State = ports.IdempotencyCompleted
		record.Receipt = &receipt
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		pipe.Set(ctx, keyPrefix+key, payload, goredis.KeepTTL)
		return nil
	})
}

func (s *IdempotencyStore) Release(ctx context.Context, key, token string) error {
	return s.mutate(ctx, key, token, func(pipe goredis.Pipeliner, record *ports.IdempotencyRecord) error {
		if record.State == ports.IdempotencyPending {
			pipe.Del(ctx, keyPrefix+key)
		}
		return nil
	})
}

// mutate applies change inside an optimistic transaction that only succeeds while
// token still owns key.
func (s *IdempotencyStore) mutate(
	ctx context.Context,
	key, token string,
	change func(pipe goredis.Pipeliner, record *ports.IdempotencyRecord) error,
) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		record, err := s.load(ctx, tx, key)
		if errors.Is(err, goredis.Nil) {
			return ports.ErrReservationLost
		}
		if err != nil {
			return err
		}
		if record.Token != token {
			return ports.ErrReservationLost
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			return change(pipe, record)
		})
		return err
	}, keyPrefix+key)
	if errors.Is(err, goredis.TxFailedErr) {
		return ports.ErrReservationLost
	}
	return err
}

func (s *IdempotencyStore) load(ctx context.Context, c getter, key string) (*ports.IdempotencyRecord, error) {
	raw, err := c.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return nil, err
	}
	var record ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode idempotency record %q: %w", key, err)
	}
	return &record, nil
}

func (s *IdempotencyStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	return nil
}
