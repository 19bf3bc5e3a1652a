package orders

import (
	"go.temporal.io/sdk/workflow"

	orderports "github.com/Apurer/school-activities-api/internal/domains/orders/ports"
	"github.com/Apurer/school-activities-api/internal/platform/temporal/sequences"
)

const (
	// SettlementTaskQueue is polled by cmd/worker.
	SettlementTaskQueue = "orders-settlement"
	// SettlementWorkflowName is the registered workflow type.
	SettlementWorkflowName = "orders.workflows.Settlement"
)

// SettlementWorkflowInput carries the order to settle and the caller's trace id.
type SettlementWorkflowInput struct {
	Settlement orderports.SettlementInput
	TraceID    string
}

// SettlementWorkflow runs the settlement sequence for one order.
func SettlementWorkflow(ctx workflow.Context, input SettlementWorkflowInput) (*orderports.SettlementResult, error) {
	workflow.GetLogger(ctx).Info("settlement workflow started", "orderId", input.Settlement.OrderID, "traceId", input.TraceID)
	return sequences.RunSettlementSequence(ctx, input.Settlement)
}
