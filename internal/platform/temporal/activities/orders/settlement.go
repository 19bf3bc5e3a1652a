package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	orderports "github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

const (
	// AdjustInventoryActivityName decrements lesson inventory for one order.
	AdjustInventoryActivityName = "orders.activities.AdjustInventory"
	// MarkPlacedActivityName moves an order out of inventory-pending.
	MarkPlacedActivityName = "orders.activities.MarkPlaced"
	// NotifyOrderPlacedActivityName emails the operator about a placed order.
	NotifyOrderPlacedActivityName = "orders.activities.NotifyOrderPlaced"
)

// Activities groups the settlement steps of the orders bounded context.
type Activities struct {
	settler orderports.Settler
}

// NewActivities wires the order settler into the Temporal activities bundle.
func NewActivities(settler orderports.Settler) *Activities {
	return &Activities{settler: settler}
}

// AdjustInventory applies the per-occurrence decrements. A retried attempt whose
// predecessor already finished is skipped using the heartbeat record.
func (a *Activities) AdjustInventory(ctx context.Context, input orderports.SettlementInput) (*orderports.AdjustResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.settler == nil {
		logger.Error("adjust inventory activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("adjust inventory activity not initialized")
	}
	var hb adjustHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("AdjustInventory already completed in prior attempt; skipping", "orderId", input.OrderID)
		return &hb.Result, nil
	}

	logger.Info("AdjustInventory activity started", "orderId", input.OrderID, "items", len(input.LessonIDs))
	result, err := a.settler.AdjustInventory(ctx, input)
	if err != nil {
		logger.Error("AdjustInventory activity failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	activity.RecordHeartbeat(ctx, adjustHeartbeat{Completed: true, Result: *result})
	logger.Info("AdjustInventory activity completed", "orderId", input.OrderID, "matched", result.MatchedCount, "modified", result.ModifiedCount)
	return result, nil
}

// MarkPlaced records the settled status on the order.
func (a *Activities) MarkPlaced(ctx context.Context, orderID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.settler == nil {
		logger.Error("mark placed activity not initialized", "orderId", orderID)
		return errors.New("mark placed activity not initialized")
	}
	logger.Info("MarkPlaced activity started", "orderId", orderID)
	if err := a.settler.MarkPlaced(ctx, orderID); err != nil {
		logger.Error("MarkPlaced activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("MarkPlaced activity completed", "orderId", orderID)
	return nil
}

// NotifyOrderPlaced sends the operator notification.
func (a *Activities) NotifyOrderPlaced(ctx context.Context, orderID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.settler == nil {
		logger.Error("notify activity not initialized", "orderId", orderID)
		return errors.New("notify activity not initialized")
	}
	logger.Info("NotifyOrderPlaced activity started", "orderId", orderID)
	if err := a.settler.NotifyPlaced(ctx, orderID); err != nil {
		logger.Error("NotifyOrderPlaced activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("NotifyOrderPlaced activity completed", "orderId", orderID)
	return nil
}

type adjustHeartbeat struct {
	Completed bool
	Result    orderports.AdjustResult
}
