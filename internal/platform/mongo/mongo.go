package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const pingTimeout = 5 * time.Second

// Connect opens a MongoDB client and verifies connectivity with a primary ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongodb URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// ConnectWithRetry keeps calling Connect with exponential backoff until it succeeds,
// attempts are exhausted, or ctx is done. attempts <= 0 retries until ctx is done.
func ConnectWithRetry(ctx context.Context, uri string, attempts int, logger *slog.Logger) (*mongo.Client, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongodb URI is empty")
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 15 * time.Second
	policy.MaxElapsedTime = 0
	var b backoff.BackOff = policy
	if attempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(attempts-1))
	}
	b = backoff.WithContext(b, ctx)

	var client *mongo.Client
	attempt := 0
	op := func() error {
		attempt++
		c, err := Connect(ctx, uri)
		if err != nil {
			return err
		}
		client = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		if logger != nil {
			logger.Warn("mongodb connection attempt failed",
				slog.Int("attempt", attempt),
				slog.Duration("retryIn", wait),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("connect to mongodb after %d attempts: %w", attempt, err)
	}
	return client, nil
}
