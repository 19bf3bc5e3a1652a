package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/school-activities-api/internal/app/api"
	ordersapp "github.com/Apurer/school-activities-api/internal/domains/orders/application"
	platformobservability "github.com/Apurer/school-activities-api/internal/platform/observability"
	platformtemporal "github.com/Apurer/school-activities-api/internal/platform/temporal"
	orderactivities "github.com/Apurer/school-activities-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/school-activities-api/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "school-activities-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	store, closeSecrets := api.OpenDocumentStore(ctx, cfg, logger)
	defer closeSecrets()
	defer store.Close()

	orderOpts := []ordersapp.Option{ordersapp.WithLogger(logger)}
	if notifier := api.BuildNotifier(cfg, logger); notifier != nil {
		orderOpts = append(orderOpts, ordersapp.WithNotifier(notifier))
	}
	settlementActivities := orderactivities.NewActivities(ordersapp.NewService(store, orderOpts...))

	temporalClient, err := platformtemporal.Dial(platformtemporal.ClientConfig{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Tracer:    instruments.Tracer("temporal-worker"),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.SettlementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.SettlementWorkflow, workflow.RegisterOptions{Name: orderworkflows.SettlementWorkflowName})
	w.RegisterActivityWithOptions(settlementActivities.AdjustInventory, activity.RegisterOptions{Name: orderactivities.AdjustInventoryActivityName})
	w.RegisterActivityWithOptions(settlementActivities.MarkPlaced, activity.RegisterOptions{Name: orderactivities.MarkPlacedActivityName})
	w.RegisterActivityWithOptions(settlementActivities.NotifyOrderPlaced, activity.RegisterOptions{Name: orderactivities.NotifyOrderPlacedActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.SettlementTaskQueue), slog.String("namespace", namespaceOrDefault(cfg.TemporalNamespace)))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func namespaceOrDefault(namespace string) string {
	if namespace == "" {
		return client.DefaultNamespace
	}
	return namespace
}
