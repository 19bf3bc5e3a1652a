package ports

import "context"

// SettlementOrchestrator runs the settlement steps, durably when a workflow engine is available.
type SettlementOrchestrator interface {
	Settle(ctx context.Context, input SettlementInput) (*SettlementResult, error)
}
