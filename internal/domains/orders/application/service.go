package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	docports "github.com/Apurer/school-activities-api/internal/domains/documents/ports"
	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

// reservationTimeout bounds finishing an idempotency key once the request may have
// already run out of time.
const reservationTimeout = 5 * time.Second

// Service places orders as a two-step saga: the order is stored as
// inventory-pending, then settlement decrements inventory and marks it placed.
type Service struct {
	gateway      docports.Gateway
	orchestrator ports.SettlementOrchestrator
	idempotency  ports.IdempotencyStore
	notifier     ports.Notifier
	grace        time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*Service)

// WithOrchestrator hands settlement to a workflow engine instead of running it inline.
func WithOrchestrator(o ports.SettlementOrchestrator) Option {
	return func(s *Service) {
		s.orchestrator = o
	}
}

// WithIdempotencyStore enables Idempotency-Key handling.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithNotifier sends a best-effort notification once an order is placed.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithReconcileGrace leaves orders younger than d to the request still settling them.
func WithReconcileGrace(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithLogger injects the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(gateway docports.Gateway, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder validates, persists and settles an order.
func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.Receipt, error) {
	order, err := domain.Parse(input.Body)
	if err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	var reservation *ports.IdempotencyRecord
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintOrder(input.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		record, err := s.idempotency.Reserve(ctx, key, hash)
		if err != nil {
			return nil, mapError(err)
		}
		if record.State == ports.IdempotencyCompleted && record.Receipt != nil {
			return s.replay(ctx, record.Receipt)
		}
		reservation = record
	}

	receipt, err := s.place(ctx, order)
	if reservation != nil {
		s.finishReservation(ctx, key, reservation.Token, receipt, err)
	}
	return receipt, err
}

func (s *Service) place(ctx context.Context, order *domain.Order) (*ports.Receipt, error) {
	orders := s.gateway.Collection(domain.OrdersCollection)
	created, err := s.gateway.InsertOne(ctx, orders, order.PendingDocument(s.now()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistOrder, err)
	}
	orderID, _ := created[docdomain.IDField].(string)
	input := ports.SettlementInput{OrderID: orderID, LessonIDs: order.LessonIDs()}

	result, err := s.settle(ctx, input)
	if err != nil {
		return nil, &PartialPlacementError{OrderID: orderID, Status: domain.StatusInventoryPending, Err: err}
	}
	return &ports.Receipt{OrderID: orderID, Status: result.Status}, nil
}

func (s *Service) settle(ctx context.Context, input ports.SettlementInput) (*ports.SettlementResult, error) {
	if s.orchestrator != nil {
		return s.orchestrator.Settle(ctx, input)
	}
	return s.Settle(ctx, input)
}

// finishReservation completes the key once an order exists, so a retry never
// creates a second order, and releases it when nothing was stored. It runs detached
// from the request deadline: a placement that timed out still stored the order.
func (s *Service) finishReservation(ctx context.Context, key, token string, receipt *ports.Receipt, placeErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reservationTimeout)
	defer cancel()
	var partial *PartialPlacementError
	var err error
	switch {
	case placeErr == nil:
		err = s.idempotency.Complete(ctx, key, token, *receipt)
	case errors.As(placeErr, &partial):
		err = s.idempotency.Complete(ctx, key, token, ports.Receipt{OrderID: partial.OrderID, Status: partial.Status})
	default:
		err = s.idempotency.Release(ctx, key, token)
	}
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to finish idempotency reservation",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// replay answers a repeated key with the order's current state.
func (s *Service) replay(ctx context.Context, receipt *ports.Receipt) (*ports.Receipt, error) {
	if receipt.Status == domain.StatusPlaced {
		out := *receipt
		return &out, nil
	}
	order, err := s.loadOrder(ctx, receipt.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusPlaced {
		return &ports.Receipt{OrderID: order.ID, Status: order.Status}, nil
	}
	return nil, &PartialPlacementError{
		OrderID: receipt.OrderID,
		Status:  domain.StatusInventoryPending,
		Err:     errors.New("settlement has not completed yet"),
	}
}

// Settle adjusts inventory, marks the order placed and notifies the operator.
// Notification failures are logged only.
func (s *Service) Settle(ctx context.Context, input ports.SettlementInput) (*ports.SettlementResult, error) {
	adjust, err := s.AdjustInventory(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.MarkPlaced(ctx, input.OrderID); err != nil {
		return nil, err
	}
	if err := s.NotifyPlaced(ctx, input.OrderID); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "order notification failed",
			slog.String("order.id", input.OrderID),
			slog.String("error", err.Error()),
		)
	}
	return &ports.SettlementResult{OrderID: input.OrderID, Status: domain.StatusPlaced, Adjust: *adjust}, nil
}

// AdjustInventory decrements AvailableInventory once per cart occurrence in a single
// bulk write. Unknown lessons are no-ops and no floor is enforced.
func (s *Service) AdjustInventory(ctx context.Context, input ports.SettlementInput) (*ports.AdjustResult, error) {
	ops := domain.InventoryAdjustments(input.LessonIDs)
	if len(ops) == 0 {
		return &ports.AdjustResult{}, nil
	}
	result, err := s.gateway.BulkWrite(ctx, s.gateway.Collection(domain.LessonsCollection), ops)
	if err != nil {
		return nil, fmt.Errorf("adjust inventory for order %s: %w", input.OrderID, err)
	}
	return &ports.AdjustResult{MatchedCount: result.MatchedCount, ModifiedCount: result.ModifiedCount}, nil
}

// MarkPlaced moves the order out of inventory-pending.
func (s *Service) MarkPlaced(ctx context.Context, orderID string) error {
	id, err := s.gateway.ParseID(orderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderNotFound, err)
	}
	result, err := s.gateway.UpdateOne(ctx, s.gateway.Collection(domain.OrdersCollection), id, docdomain.Document{
		domain.FieldStatus:    string(domain.StatusPlaced),
		domain.FieldSettledAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("mark order %s placed: %w", orderID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

// NotifyPlaced loads the order and hands it to the notifier, when one is configured.
func (s *Service) NotifyPlaced(ctx context.Context, orderID string) error {
	if s.notifier == nil {
		return nil
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.notifier.OrderPlaced(ctx, order)
}

// Reconcile settles every pending order through the configured orchestrator.
// Orders are processed independently; one failure does not stop the pass.
func (s *Service) Reconcile(ctx context.Context) (*ports.ReconcileReport, error) {
	pending, err := s.PendingOrders(ctx)
	if err != nil {
		return nil, err
	}
	report := &ports.ReconcileReport{Pending: len(pending)}
	cutoff := s.now().Add(-s.grace)
	for _, order := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if s.grace > 0 && order.PlacedAt.After(cutoff) {
			report.Deferred++
			continue
		}
		input := ports.SettlementInput{OrderID: order.ID, LessonIDs: order.LessonIDs()}
		if _, err := s.settle(ctx, input); err != nil {
			report.Failed++
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to settle pending order",
				slog.String("order.id", order.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Settled++
	}
	return report, nil
}

// PendingOrders lists orders still waiting for settlement.
func (s *Service) PendingOrders(ctx context.Context) ([]*domain.Order, error) {
	docs, err := s.gateway.Find(ctx, s.gateway.Collection(domain.OrdersCollection),
		docdomain.AllOf(docdomain.Eq(domain.FieldStatus, string(domain.StatusInventoryPending))))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := domain.FromDocument(doc)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "skipping unreadable pending order", slog.String("error", err.Error()))
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (s *Service) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := s.gateway.ParseID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderNotFound, err)
	}
	doc, err := s.gateway.FindOne(ctx, s.gateway.Collection(domain.OrdersCollection), id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return domain.FromDocument(doc)
}

var (
	_ ports.Service = (*Service)(nil)
	_ ports.Settler = (*Service)(nil)
)
