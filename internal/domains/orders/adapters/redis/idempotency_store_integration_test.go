//go:build integration
// +build integration

package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

func setupRedisContainer(t *testing.T) (*goredis.Client, func()) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

func TestRedisIdempotencyStore_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client, cleanup := setupRedisContainer(t)
	defer cleanup()
	ctx := context.Background()
	store := NewIdempotencyStore(client)

	rec, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyPending, rec.State)

	_, err = store.Reserve(ctx, "k1", "h1")
	require.ErrorIs(t, err, ports.ErrIdempotencyInFlight)
	_, err = store.Reserve(ctx, "k1", "h2")
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	require.ErrorIs(t, store.Complete(ctx, "k1", "stale", ports.Receipt{OrderID: "o1"}), ports.ErrReservationLost)
	require.NoError(t, store.Complete(ctx, "k1", rec.Token, ports.Receipt{OrderID: "o1", Status: "placed"}))

	replay, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyCompleted, replay.State)
	require.Equal(t, "o1", replay.Receipt.OrderID)

	ttl, err := client.TTL(ctx, keyPrefix+"k1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl.Seconds(), 0.0)
}

func TestRedisIdempotencyStore_ReleaseFreesKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client, cleanup := setupRedisContainer(t)
	defer cleanup()
	ctx := context.Background()
	store := NewIdempotencyStore(client)

	rec, err := store.Reserve(ctx, "k2", "h1")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2", rec.Token))

	again, err := store.Reserve(ctx, "k2", "h1")
	require.NoError(t, err)
	require.NotEqual(t, rec.Token, again.Token)
}
