package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/school-activities-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/school-activities-api/internal/platform/temporal/activities/orders"
)

var (
	storeOptions = workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	notifyOptions = workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}
)

// MaxSettlementDuration is the longest a settlement run can take when every activity
// attempt times out: two store steps and the notification, retries included.
func MaxSettlementDuration() time.Duration {
	return 2*maxActivityDuration(storeOptions) + maxActivityDuration(notifyOptions)
}

func maxActivityDuration(opts workflow.ActivityOptions) time.Duration {
	policy := opts.RetryPolicy
	total := time.Duration(policy.MaximumAttempts) * opts.StartToCloseTimeout
	interval := policy.InitialInterval
	for i := int32(1); i < policy.MaximumAttempts; i++ {
		total += min(interval, policy.MaximumInterval)
		interval = time.Duration(float64(interval) * policy.BackoffCoefficient)
	}
	return total
}

// RunSettlementSequence adjusts inventory, marks the order placed, then notifies the
// operator. A notification failure is logged and does not fail the sequence.
func RunSettlementSequence(ctx workflow.Context, input orderports.SettlementInput) (*orderports.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("settlement sequence started", "orderId", input.OrderID)
	storeCtx := workflow.WithActivityOptions(ctx, storeOptions)

	var adjust orderports.AdjustResult
	if err := workflow.ExecuteActivity(storeCtx, orderactivities.AdjustInventoryActivityName, input).Get(ctx, &adjust); err != nil {
		logger.Error("settlement sequence inventory adjustment failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	logger.Info("settlement sequence adjusted inventory", "orderId", input.OrderID, "matched", adjust.MatchedCount)

	if err := workflow.ExecuteActivity(storeCtx, orderactivities.MarkPlacedActivityName, input.OrderID).Get(ctx, nil); err != nil {
		logger.Error("settlement sequence mark placed failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}

	notifyCtx := workflow.WithActivityOptions(ctx, notifyOptions)
	if err := workflow.ExecuteActivity(notifyCtx, orderactivities.NotifyOrderPlacedActivityName, input.OrderID).Get(ctx, nil); err != nil {
		logger.Warn("settlement sequence notification failed", "orderId", input.OrderID, "error", err)
	}
	logger.Info("settlement sequence completed", "orderId", input.OrderID)
	return &orderports.SettlementResult{OrderID: input.OrderID, Status: domain.StatusPlaced, Adjust: adjust}, nil
}
