package ports

import (
	"context"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
)

// PlaceOrderInput carries the raw order payload and the optional client key.
type PlaceOrderInput struct {
	Body           docdomain.Document
	IdempotencyKey string
}

// Receipt is what a caller learns about a placed order.
type Receipt struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
}

// SettlementInput identifies the order whose inventory must move.
type SettlementInput struct {
	OrderID   string `json:"orderId"`
	LessonIDs []any  `json:"lessonIds"`
}

// AdjustResult reports how many decrement instructions found a lesson.
type AdjustResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// SettlementResult is the outcome of adjusting inventory and marking the order placed.
type SettlementResult struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
	Adjust  AdjustResult  `json:"adjust"`
}

// ReconcileReport summarises a reconciliation pass over pending orders.
type ReconcileReport struct {
	Pending  int
	Settled  int
	Failed   int
	Deferred int
}

// Service defines the order use cases exposed to adapters (inbound/driving port).
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Receipt, error)
	// Reconcile re-settles every order still waiting for inventory adjustment.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

// Settler exposes the individual settlement steps. Workflow activities call them one
// by one; Settle runs them in sequence.
type Settler interface {
	AdjustInventory(ctx context.Context, input SettlementInput) (*AdjustResult, error)
	MarkPlaced(ctx context.Context, orderID string) error
	NotifyPlaced(ctx context.Context, orderID string) error
	Settle(ctx context.Context, input SettlementInput) (*SettlementResult, error)
}
