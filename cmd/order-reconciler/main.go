package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Apurer/school-activities-api/internal/app/api"
	orderworkflows "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/school-activities-api/internal/domains/orders/application"
	platformobservability "github.com/Apurer/school-activities-api/internal/platform/observability"
	platformtemporal "github.com/Apurer/school-activities-api/internal/platform/temporal"
	"github.com/Apurer/school-activities-api/internal/platform/temporal/sequences"
)

const defaultRunTimeout = 30 * time.Minute

// defaultGrace outlasts any settlement workflow the API may still be running.
var defaultGrace = sequences.MaxSettlementDuration() + time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	const serviceName = "school-activities-order-reconciler"
	cfg, err := api.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	if cfg.MongoURI == "" && cfg.MongoURISecret == "" {
		logger.Error("MONGODB_URI not set; nothing to reconcile in an in-memory store")
		return 1
	}
	store, closeSecrets := api.OpenDocumentStore(ctx, cfg, logger)
	defer closeSecrets()
	defer store.Close()
	if err := store.Wait(ctx); err != nil {
		logger.Error("document store unavailable", slog.String("error", err.Error()))
		return 1
	}

	orderOpts := []ordersapp.Option{
		ordersapp.WithLogger(logger),
		ordersapp.WithReconcileGrace(graceFromEnv(logger)),
	}
	if notifier := api.BuildNotifier(cfg, logger); notifier != nil {
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
		logger.Warn("Temporal workflows unavailable, settling pending orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderOpts = append(orderOpts, ordersapp.WithOrchestrator(orderworkflows.NewTemporalSettlement(temporalClient)))
	}

	report, err := ordersapp.NewService(store, orderOpts...).Reconcile(ctx)
	if err != nil {
		logger.Error("failed to reconcile orders", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("order reconciliation completed",
		slog.Int("pending", report.Pending),
		slog.Int("settled", report.Settled),
		slog.Int("deferred", report.Deferred),
		slog.Int("failed", report.Failed),
	)
	if report.Failed > 0 {
		return 1
	}
	return 0
}

func graceFromEnv(logger *slog.Logger) time.Duration {
	raw := strings.TrimSpace(os.Getenv("RECONCILE_GRACE_SECONDS"))
	if raw == "" {
		return defaultGrace
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		logger.Warn("invalid RECONCILE_GRACE_SECONDS, using default", slog.String("value", raw), slog.Duration("default", defaultGrace))
		return defaultGrace
	}
	return time.Duration(seconds) * time.Second
}
