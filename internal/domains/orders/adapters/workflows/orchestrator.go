package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/school-activities-api/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.SettlementOrchestrator = (*TemporalSettlement)(nil)
	_ ports.SettlementOrchestrator = (*InlineSettlement)(nil)
)

// TemporalSettlement runs settlement as a Temporal workflow and waits for its result.
type TemporalSettlement struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSettlement wires a Temporal client into the orchestrator.
func NewTemporalSettlement(c client.Client) *TemporalSettlement {
	return &TemporalSettlement{client: c, taskQueue: orderworkflows.SettlementTaskQueue}
}

// Settle starts, or joins, the settlement workflow for the order. The workflow id is
// derived from the order id so a reconciliation pass never settles the same order twice
// concurrently.
func (o *TemporalSettlement) Settle(ctx context.Context, input ports.SettlementInput) (*ports.SettlementResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal settlement not configured")
	}
	workflowID := settlementWorkflowID(input.OrderID)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.SettlementWorkflowName,
		orderworkflows.SettlementWorkflowInput{Settlement: input, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var result ports.SettlementResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InlineSettlement runs the settlement steps in-process, used when Temporal is unavailable.
type InlineSettlement struct {
	settler ports.Settler
}

// NewInlineSettlement wraps a settler for synchronous execution.
func NewInlineSettlement(settler ports.Settler) *InlineSettlement {
	return &InlineSettlement{settler: settler}
}

func (o *InlineSettlement) Settle(ctx context.Context, input ports.SettlementInput) (*ports.SettlementResult, error) {
	if o == nil || o.settler == nil {
		return nil, errors.New("inline settlement not configured")
	}
	return o.settler.Settle(ctx, input)
}

func settlementWorkflowID(orderID string) string {
	return fmt.Sprintf("order-settlement-%s", orderID)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
