// Package docstore opens the document store behind a readiness gate.
package docstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Apurer/school-activities-api/internal/domains/documents/adapters/gated"
	docmemory "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/memory"
	docmongo "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/persistence/mongo"
	platformmongo "github.com/Apurer/school-activities-api/internal/platform/mongo"
)

const disconnectTimeout = 5 * time.Second

// SecretResolver turns a secret resource name into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Options selects the backing store. With neither URI nor URISecret set the
// store runs in memory.
type Options struct {
	URI             string
	URISecret       string
	Database        string
	ConnectAttempts int
	Secrets         SecretResolver
	Logger          *slog.Logger
}

// Store is a gated gateway whose MongoDB connection is established in the background.
type Store struct {
	*gated.Gateway

	done   chan struct{}
	cancel context.CancelFunc
	client *mongo.Client
	logger *slog.Logger
}

// Open returns immediately; the gate opens once the connect loop succeeds and
// fails for good once its attempts are exhausted.
func Open(ctx context.Context, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	connectCtx, cancel := context.WithCancel(ctx)
	s := &Store{Gateway: gated.New(), done: make(chan struct{}), cancel: cancel, logger: logger}

	if strings.TrimSpace(opts.URI) == "" && strings.TrimSpace(opts.URISecret) == "" {
		logger.Warn("MONGODB_URI not set, documents kept in memory")
		s.Ready(docmemory.NewGateway())
		close(s.done)
		return s
	}
	go s.connect(connectCtx, opts)
	return s
}

func (s *Store) connect(ctx context.Context, opts Options) {
	defer close(s.done)
	uri := strings.TrimSpace(opts.URI)
	if uri == "" {
		resolved, err := resolveURI(ctx, opts)
		if err != nil {
			s.logger.Error("failed to resolve mongodb uri", slog.String("secret", opts.URISecret), slog.String("error", err.Error()))
			s.Fail(err)
			return
		}
		uri = resolved
	}
	client, err := platformmongo.ConnectWithRetry(ctx, uri, opts.ConnectAttempts, s.logger)
	if err != nil {
		s.logger.Error("document store unavailable", slog.String("error", err.Error()))
		s.Fail(err)
		return
	}
	s.client = client
	s.Ready(docmongo.NewGateway(client.Database(opts.Database)))
	s.logger.Info("document store ready", slog.String("database", opts.Database))
}

func resolveURI(ctx context.Context, opts Options) (string, error) {
	if opts.Secrets == nil {
		return "", errors.New("MONGODB_URI_SECRET set without a secret resolver")
	}
	return opts.Secrets.Resolve(ctx, opts.URISecret)
}

// Wait blocks until the connect loop has finished and returns its failure, if any.
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if state, err := s.State(); state != gated.StateReady {
		if err == nil {
			err = errors.New("document store not ready")
		}
		return err
	}
	return nil
}

// Close stops a pending connect loop and disconnects the client.
func (s *Store) Close() {
	s.cancel()
	<-s.done
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("failed to disconnect mongodb", slog.String("error", err.Error()))
	}
}
