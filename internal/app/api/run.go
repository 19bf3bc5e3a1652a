package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	lessonserver "github.com/Apurer/school-activities-api/go"

	docobs "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/observability"
	docapp "github.com/Apurer/school-activities-api/internal/domains/documents/application"
	ordermemory "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/memory"
	ordernotify "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/notify"
	ordersobs "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/observability"
	orderredis "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/redis"
	orderworkflows "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/school-activities-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/school-activities-api/internal/domains/orders/ports"
	searchmemory "github.com/Apurer/school-activities-api/internal/domains/search/adapters/memory"
	searchobs "github.com/Apurer/school-activities-api/internal/domains/search/adapters/observability"
	searchpostgres "github.com/Apurer/school-activities-api/internal/domains/search/adapters/persistence/postgres"
	searchapp "github.com/Apurer/school-activities-api/internal/domains/search/application"
	searchports "github.com/Apurer/school-activities-api/internal/domains/search/ports"
	"github.com/Apurer/school-activities-api/internal/platform/docstore"
	"github.com/Apurer/school-activities-api/internal/platform/images"
	platformobservability "github.com/Apurer/school-activities-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/school-activities-api/internal/platform/postgres"
	"github.com/Apurer/school-activities-api/internal/platform/secrets"
	platformtemporal "github.com/Apurer/school-activities-api/internal/platform/temporal"
)

const (
	serviceName     = "school-activities-api"
	shutdownTimeout = 5 * time.Second
)

// Run boots the school activities HTTP API with observability, stores, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeSecrets := OpenDocumentStore(ctx, cfg, logger)
	defer closeSecrets()
	defer store.Close()

	db, cleanupDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer cleanupDB()

	resolver := docapp.NewResolver(store, cfg.CollectionAllowlist...)
	if resolver.Restricted() {
		logger.Info("collection access restricted to allowlist", slog.Any("collections", cfg.CollectionAllowlist))
	} else {
		logger.Info("collection access unrestricted")
	}
	documents := docobs.New(
		docapp.NewService(store, docapp.WithResolver(resolver)),
		docobs.WithLogger(logger),
		docobs.WithTracer(instruments.Tracer("internal.documents.application")),
		docobs.WithMeter(instruments.Meter("internal.documents.application")),
	)
	search := searchobs.New(
		searchapp.NewService(store,
			searchapp.WithActivityLog(buildActivityLog(ctx, db, logger)),
			searchapp.WithGlobalCollection(cfg.GlobalSearchCollection),
			searchapp.WithRawPatterns(cfg.SearchRawPatterns),
			searchapp.WithLogger(logger),
		),
		searchobs.WithLogger(logger),
		searchobs.WithTracer(instruments.Tracer("internal.search.application")),
		searchobs.WithMeter(instruments.Meter("internal.search.application")),
	)

	idempotency, closeRedis := buildIdempotencyStore(ctx, cfg, logger)
	defer closeRedis()
	orderOpts := []ordersapp.Option{
		ordersapp.WithIdempotencyStore(idempotency),
		ordersapp.WithLogger(logger),
	}
	if notifier := BuildNotifier(cfg, logger); notifier != nil {
		orderOpts = append(orderOpts, ordersapp.WithNotifier(notifier))
	}
	temporalClient, err := platformtemporal.Dial(platformtemporal.ClientConfig{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
		Tracer:    instruments.Tracer("temporal-client"),
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("Temporal workflows unavailable, settling orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderOpts = append(orderOpts, ordersapp.WithOrchestrator(orderworkflows.NewTemporalSettlement(temporalClient)))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	orders := ordersobs.New(
		ordersapp.NewService(store, orderOpts...),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	imageSource, closeImages := buildImageSource(ctx, cfg, logger)
	defer closeImages()

	handlers := lessonserver.ApiHandleFunctions{
		CollectionAPI: lessonserver.NewCollectionAPI(documents),
		SearchAPI:     lessonserver.NewSearchAPI(search),
		OrderAPI:      lessonserver.NewOrderAPI(orders),
		ImageAPI:      lessonserver.NewImageAPI(imageSource),
		SystemAPI:     lessonserver.NewSystemAPI(store),
	}
	router := lessonserver.NewRouter(handlers,
		lessonserver.WithGatewayTimeout(cfg.GatewayTimeout),
		lessonserver.WithLogger(logger),
		lessonserver.WithMiddleware(otelgin.Middleware(serviceName)),
	)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           lessonserver.WithCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	logger.Info("School activities API listening", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("School activities API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// OpenDocumentStore starts the gated document store, resolving the MongoDB URI
// from Secret Manager when MONGODB_URI_SECRET is set.
func OpenDocumentStore(ctx context.Context, cfg Config, logger *slog.Logger) (*docstore.Store, func()) {
	opts := docstore.Options{
		URI:             cfg.MongoURI,
		URISecret:       cfg.MongoURISecret,
		Database:        cfg.MongoDatabase,
		ConnectAttempts: cfg.GatewayConnectAttempts,
		Logger:          logger,
	}
	cleanup := func() {}
	if cfg.MongoURISecret != "" {
		resolver, err := secrets.NewResolver(ctx)
		if err != nil {
			logger.Error("secret manager unavailable", slog.String("error", err.Error()))
		} else {
			opts.Secrets = resolver
			cleanup = func() { _ = resolver.Close() }
		}
	}
	return docstore.Open(ctx, opts), cleanup
}

// buildActivityLog prefers postgres when its activity table answers a read, and
// falls back to process memory otherwise.
func buildActivityLog(ctx context.Context, db *gorm.DB, logger *slog.Logger) searchports.ActivityLog {
	if db == nil {
		return searchmemory.NewActivityLog()
	}
	activity := searchpostgres.NewActivityLog(db)
	latest, err := activity.Recent(ctx, 1)
	if err != nil {
		logger.Warn("search activity table unreadable, recording in memory", slog.String("error", err.Error()))
		return searchmemory.NewActivityLog()
	}
	attrs := []slog.Attr{}
	if len(latest) == 1 {
		attrs = append(attrs, slog.Time("lastSearchAt", latest[0].RecordedAt), slog.String("lastScope", string(latest[0].Scope)))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "search activity recorded in postgres", attrs...)
	return activity
}

func buildIdempotencyStore(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.IdempotencyStore, func()) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, idempotency keys kept in memory")
		return ordermemory.NewIdempotencyStore(), func() {}
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to reach redis, idempotency keys kept in memory", slog.String("error", err.Error()))
		_ = client.Close()
		return ordermemory.NewIdempotencyStore(), func() {}
	}
	logger.Info("idempotency keys stored in redis", slog.String("addr", cfg.RedisAddr))
	return orderredis.NewIdempotencyStore(client), func() { _ = client.Close() }
}

// BuildNotifier returns the SendGrid notifier when notifications are configured, else nil.
func BuildNotifier(cfg Config, logger *slog.Logger) ordersports.Notifier {
	if !cfg.NotificationsEnabled() {
		return nil
	}
	notifier, err := ordernotify.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.OrderNotifyFrom, cfg.OrderNotifyTo)
	if err != nil {
		logger.Warn("order notifications disabled", slog.String("error", err.Error()))
		return nil
	}
	return notifier
}

func buildImageSource(ctx context.Context, cfg Config, logger *slog.Logger) (images.Source, func()) {
	if cfg.ImagesBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			logger.Warn("failed to create storage client, falling back to local images", slog.String("error", err.Error()))
		} else if source, err := images.NewBucketSource(client, cfg.ImagesBucket); err != nil {
			logger.Warn("invalid image bucket, falling back to local images", slog.String("error", err.Error()))
			_ = client.Close()
		} else {
			logger.Info("images served from bucket", slog.String("bucket", cfg.ImagesBucket))
			return source, func() { _ = client.Close() }
		}
	}
	source, err := images.NewDirSource(cfg.ImagesDir)
	if err != nil {
		logger.Warn("image directory unavailable, /images answers 404", slog.String("dir", cfg.ImagesDir), slog.String("error", err.Error()))
		return nil, func() {}
	}
	return source, func() { _ = source.Close() }
}
