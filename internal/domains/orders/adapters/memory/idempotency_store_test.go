package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

func TestIdempotencyStore_ReserveCompleteReplay(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()

	first, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyPending, first.State)
	require.NotEmpty(t, first.Token)

	_, err = store.Reserve(ctx, "k1", "h1")
	require.ErrorIs(t, err, ports.ErrIdempotencyInFlight)

	require.NoError(t, store.Complete(ctx, "k1", first.Token, ports.Receipt{OrderID: "o1", Status: "placed"}))

	replay, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyCompleted, replay.State)
	require.Equal(t, "o1", replay.Receipt.OrderID)
}

func TestIdempotencyStore_DifferentPayloadConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	_, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)

	_, err = store.Reserve(ctx, "k1", "h2")
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestIdempotencyStore_ReleaseRequiresOwningToken(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	rec, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)

	require.ErrorIs(t, store.Release(ctx, "k1", "someone-else"), ports.ErrReservationLost)
	require.NoError(t, store.Release(ctx, "k1", rec.Token))

	again, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	require.NotEqual(t, rec.Token, again.Token)
}

func TestIdempotencyStore_ExpiredKeysAreReclaimed(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	_, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)

	now = now.Add(ports.IdempotencyTTL + time.Minute)
	rec, err := store.Reserve(ctx, "k1", "h2")
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyPending, rec.State)
}
