package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	docmemory "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/memory"
	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	docports "github.com/Apurer/school-activities-api/internal/domains/documents/ports"
	ordermemory "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func orderBody(cart ...any) docdomain.Document {
	return docdomain.Document{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"address":   "1 Analytical Way",
		"city":      "London",
		"state":     "LDN",
		"zip":       "NW4",
		"phone":     "0123",
		"method":    "card",
		"cart":      cart,
	}
}

func item(id any) map[string]any {
	return map[string]any{"id": id}
}

func seedLesson(t *testing.T, gw docports.Gateway, id any, inventory int) {
	t.Helper()
	_, err := gw.InsertOne(context.Background(), gw.Collection(domain.LessonsCollection), docdomain.Document{
		"id": id, "title": "Lesson", domain.InventoryField: inventory,
	})
	require.NoError(t, err)
}

func inventoryOf(t *testing.T, gw docports.Gateway, id any) any {
	t.Helper()
	docs, err := gw.Find(context.Background(), gw.Collection(domain.LessonsCollection), docdomain.AllOf(docdomain.Eq("id", id)))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return docs[0][domain.InventoryField]
}

func storedOrders(t *testing.T, gw docports.Gateway) []docdomain.Document {
	t.Helper()
	docs, err := gw.Find(context.Background(), gw.Collection(domain.OrdersCollection), docdomain.MatchAll())
	require.NoError(t, err)
	return docs
}

// failingBulk fails every bulk write while failing is set.
type failingBulk struct {
	*docmemory.Gateway
	failing bool
}

func (g *failingBulk) BulkWrite(ctx context.Context, c docdomain.Collection, ops []docdomain.UpdateOp) (docports.BulkResult, error) {
	if g.failing {
		return docports.BulkResult{}, errors.New("connection reset")
	}
	return g.Gateway.BulkWrite(ctx, c, ops)
}

type failingInsert struct {
	*docmemory.Gateway
}

func (g failingInsert) InsertOne(context.Context, docdomain.Collection, docdomain.Document) (docdomain.Document, error) {
	return nil, errors.New("write concern error")
}

type recordingNotifier struct {
	orders []*domain.Order
	err    error
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *domain.Order) error {
	n.orders = append(n.orders, order)
	return n.err
}

func TestPlaceOrder_DecrementsOncePerOccurrence(t *testing.T) {
	gw := docmemory.NewGateway()
	seedLesson(t, gw, 7, 5)
	seedLesson(t, gw, 8, 5)
	svc := NewService(gw, WithClock(func() time.Time { return fixedNow }))

	receipt, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		Body: orderBody(item(float64(7)), item(float64(7))),
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, receipt.Status)
	require.Len(t, receipt.OrderID, 24)

	require.Equal(t, 3, inventoryOf(t, gw, 7))
	require.Equal(t, 5, inventoryOf(t, gw, 8))

	orders := storedOrders(t, gw)
	require.Len(t, orders, 1)
	require.Equal(t, "placed", orders[0][domain.FieldStatus])
	require.Equal(t, "2024-05-01T09:00:00Z", orders[0][domain.FieldPlacedAt])
	require.Equal(t, "2024-05-01T09:00:00Z", orders[0][domain.FieldSettledAt])
	require.Equal(t, "Ada", orders[0]["firstName"])
}

func TestPlaceOrder_UnknownLessonIsNoOp(t *testing.T) {
	gw := docmemory.NewGateway()
	seedLesson(t, gw, 7, 5)
	svc := NewService(gw)

	receipt, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(99)))})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, receipt.Status)
	require.Equal(t, 5, inventoryOf(t, gw, 7))
}

func TestPlaceOrder_InventoryMayGoNegative(t *testing.T) {
	gw := docmemory.NewGateway()
	seedLesson(t, gw, 7, 0)
	svc := NewService(gw)

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(7)))})
	require.NoError(t, err)
	require.Equal(t, -1, inventoryOf(t, gw, 7))
}

func TestPlaceOrder_InvalidPayloadPersistsNothing(t *testing.T) {
	gw := docmemory.NewGateway()
	seedLesson(t, gw, 7, 5)
	svc := NewService(gw)
	body := orderBody(item(float64(7)))
	delete(body, "phone")

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: body})
	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "phone")

	require.Empty(t, storedOrders(t, gw))
	require.Equal(t, 5, inventoryOf(t, gw, 7))
}

func TestPlaceOrder_EmptyCartIsRejected(t *testing.T) {
	svc := NewService(docmemory.NewGateway())

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody()})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlaceOrder_PersistFailureLeavesInventory(t *testing.T) {
	mem := docmemory.NewGateway()
	seedLesson(t, mem, 7, 5)
	store := ordermemory.NewIdempotencyStore()
	svc := NewService(failingInsert{mem}, WithIdempotencyStore(store))

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(7))), IdempotencyKey: "k1"})
	require.ErrorIs(t, err, ErrPersistOrder)
	require.Equal(t, 5, inventoryOf(t, mem, 7))

	// the key was released, so a retry is not reported as in flight
	_, err = store.Reserve(context.Background(), "k1", mustFingerprint(t, orderBody(item(float64(7)))))
	require.NoError(t, err)
}

func TestPlaceOrder_SettlementFailureLeavesOrderPendingThenReconciles(t *testing.T) {
	gw := &failingBulk{Gateway: docmemory.NewGateway(), failing: true}
	seedLesson(t, gw, 7, 5)
	svc := NewService(gw)

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(7)), item(float64(7)))})
	var partial *PartialPlacementError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, domain.StatusInventoryPending, partial.Status)
	require.NotEmpty(t, partial.OrderID)

	orders := storedOrders(t, gw)
	require.Len(t, orders, 1)
	require.Equal(t, "inventory-pending", orders[0][domain.FieldStatus])
	require.Equal(t, 5, inventoryOf(t, gw, 7))

	pending, err := svc.PendingOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, partial.OrderID, pending[0].ID)

	gw.failing = false
	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, &ports.ReconcileReport{Pending: 1, Settled: 1}, report)
	require.Equal(t, 3, inventoryOf(t, gw, 7))
	require.Equal(t, "placed", storedOrders(t, gw)[0][domain.FieldStatus])

	pending, err = svc.PendingOrders(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestPlaceOrder_IdempotentReplayReturnsSameOrder(t *testing.T) {
	gw := docmemory.NewGateway()
	seedLesson(t, gw, 7, 5)
	svc := NewService(gw, WithIdempotencyStore(ordermemory.NewIdempotencyStore()))
	input := ports.PlaceOrderInput{Body: orderBody(item(float64(7))), IdempotencyKey: "abc"}

	first, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, storedOrders(t, gw), 1)
	require.Equal(t, 4, inventoryOf(t, gw, 7))
}

func TestPlaceOrder_KeyInFlightConflicts(t *testing.T) {
	gw := docmemory.NewGateway()
	store := ordermemory.NewIdempotencyStore()
	svc := NewService(gw, WithIdempotencyStore(store))
	body := orderBody(item(float64(7)))
	_, err := store.Reserve(context.Background(), "abc", mustFingerprint(t, body))
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: body, IdempotencyKey: "abc"})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrIdempotencyInFlight)
	require.Empty(t, storedOrders(t, gw))
}

func TestPlaceOrder_ReplayOfPendingOrderReportsPartial(t *testing.T) {
	gw := &failingBulk{Gateway: docmemory.NewGateway(), failing: true}
	svc := NewService(gw, WithIdempotencyStore(ordermemory.NewIdempotencyStore()))
	input := ports.PlaceOrderInput{Body: orderBody(item(float64(7))), IdempotencyKey: "abc"}

	_, err := svc.PlaceOrder(context.Background(), input)
	var partial *PartialPlacementError
	require.ErrorAs(t, err, &partial)

	_, err = svc.PlaceOrder(context.Background(), input)
	var replayed *PartialPlacementError
	require.ErrorAs(t, err, &replayed)
	require.Equal(t, partial.OrderID, replayed.OrderID)
	require.Len(t, storedOrders(t, gw), 1)

	gw.failing = false
	_, err = svc.Reconcile(context.Background())
	require.NoError(t, err)

	receipt, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, receipt.Status)
	require.Equal(t, partial.OrderID, receipt.OrderID)
}

func TestSettle_NotifierFailureIsBestEffort(t *testing.T) {
	gw := docmemory.NewGateway()
	notifier := &recordingNotifier{err: errors.New("sendgrid down")}
	svc := NewService(gw, WithNotifier(notifier))

	receipt, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item("art"))})
	require.NoError(t, err)
	require.Len(t, notifier.orders, 1)
	require.Equal(t, receipt.OrderID, notifier.orders[0].ID)
	require.Equal(t, domain.StatusPlaced, notifier.orders[0].Status)
}

type stubOrchestrator struct {
	inputs []ports.SettlementInput
}

func (o *stubOrchestrator) Settle(_ context.Context, input ports.SettlementInput) (*ports.SettlementResult, error) {
	o.inputs = append(o.inputs, input)
	return &ports.SettlementResult{OrderID: input.OrderID, Status: domain.StatusPlaced}, nil
}

func TestPlaceOrder_DelegatesSettlementToOrchestrator(t *testing.T) {
	gw := docmemory.NewGateway()
	seedLesson(t, gw, 7, 5)
	orch := &stubOrchestrator{}
	svc := NewService(gw, WithOrchestrator(orch))

	receipt, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(7)), item("x"))})
	require.NoError(t, err)
	require.Len(t, orch.inputs, 1)
	require.Equal(t, receipt.OrderID, orch.inputs[0].OrderID)
	require.Equal(t, []any{float64(7), "x"}, orch.inputs[0].LessonIDs)
	// the stub did not touch inventory
	require.Equal(t, 5, inventoryOf(t, gw, 7))
}

func TestAdjustInventory_EmptyInputWritesNothing(t *testing.T) {
	gw := &failingBulk{Gateway: docmemory.NewGateway(), failing: true}
	svc := NewService(gw)

	result, err := svc.AdjustInventory(context.Background(), ports.SettlementInput{OrderID: "x"})
	require.NoError(t, err)
	require.Equal(t, &ports.AdjustResult{}, result)
}

func TestMarkPlaced_UnknownOrder(t *testing.T) {
	svc := NewService(docmemory.NewGateway())

	err := svc.MarkPlaced(context.Background(), "65a1b2c3d4e5f60718293a4b")
	require.ErrorIs(t, err, ErrOrderNotFound)
	err = svc.MarkPlaced(context.Background(), "nope")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func mustFingerprint(t *testing.T, body docdomain.Document) string {
	t.Helper()
	hash, err := FingerprintOrder(body)
	require.NoError(t, err)
	return hash
}

func TestReconcile_GraceDefersYoungOrders(t *testing.T) {
	gw := &failingBulk{Gateway: docmemory.NewGateway(), failing: true}
	seedLesson(t, gw, 7, 5)
	now := fixedNow
	svc := NewService(gw, WithClock(func() time.Time { return now }), WithReconcileGrace(time.Minute))

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(7)))})
	require.Error(t, err)
	gw.failing = false

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, &ports.ReconcileReport{Pending: 1, Deferred: 1}, report)
	require.Equal(t, 5, inventoryOf(t, gw, 7))

	now = fixedNow.Add(2 * time.Minute)
	report, err = svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, &ports.ReconcileReport{Pending: 1, Settled: 1}, report)
	require.Equal(t, 4, inventoryOf(t, gw, 7))
}

// deadlineStore fails Complete and Release once their context is done, like a
// network-backed store would.
type deadlineStore struct {
	*ordermemory.IdempotencyStore
}

func (s deadlineStore) Complete(ctx context.Context, key, token string, receipt ports.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.IdempotencyStore.Complete(ctx, key, token, receipt)
}

func (s deadlineStore) Release(ctx context.Context, key, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.IdempotencyStore.Release(ctx, key, token)
}

// stalledOrchestrator never settles before the caller gives up.
type stalledOrchestrator struct{}

func (stalledOrchestrator) Settle(ctx context.Context, _ ports.SettlementInput) (*ports.SettlementResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPlaceOrder_TimedOutPlacementStillCompletesKey(t *testing.T) {
	gw := docmemory.NewGateway()
	store := deadlineStore{IdempotencyStore: ordermemory.NewIdempotencyStore()}
	svc := NewService(gw, WithIdempotencyStore(store), WithOrchestrator(stalledOrchestrator{}))
	input := ports.PlaceOrderInput{Body: orderBody(item(float64(7))), IdempotencyKey: "abc"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.PlaceOrder(ctx, input)
	var partial *PartialPlacementError
	require.ErrorAs(t, err, &partial)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = svc.PlaceOrder(context.Background(), input)
	require.NotErrorIs(t, err, ErrConflict)
	var replayed *PartialPlacementError
	require.ErrorAs(t, err, &replayed)
	require.Equal(t, partial.OrderID, replayed.OrderID)
	require.Len(t, storedOrders(t, gw), 1)
}

func TestReconcile_SettlesThroughOrchestrator(t *testing.T) {
	gw := &failingBulk{Gateway: docmemory.NewGateway(), failing: true}
	seedLesson(t, gw, 7, 5)
	_, err := NewService(gw).PlaceOrder(context.Background(), ports.PlaceOrderInput{Body: orderBody(item(float64(7)))})
	var partial *PartialPlacementError
	require.ErrorAs(t, err, &partial)
	gw.failing = false

	orch := &stubOrchestrator{}
	report, err := NewService(gw, WithOrchestrator(orch)).Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, &ports.ReconcileReport{Pending: 1, Settled: 1}, report)
	require.Len(t, orch.inputs, 1)
	require.Equal(t, partial.OrderID, orch.inputs[0].OrderID)
	require.Equal(t, 5, inventoryOf(t, gw, 7))
}
