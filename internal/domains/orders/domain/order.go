package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

const (
	// OrdersCollection stores placed orders.
	OrdersCollection = "orders"
	// LessonsCollection holds the inventory counters.
	LessonsCollection = "lessons"
	// InventoryField is decremented once per cart occurrence.
	InventoryField = "AvailableInventory"
	// LessonKeyField is the domain key cart items reference.
	LessonKeyField = "id"

	FieldCart      = "cart"
	FieldStatus    = "status"
	FieldPlacedAt  = "placedAt"
	FieldSettledAt = "settledAt"
)

// RequiredFields lists the scalar fields every order must carry as non-empty strings.
var RequiredFields = []string{"firstName", "lastName", "address", "city", "state", "zip", "phone", "method"}

// Status tracks settlement progress.
type Status string

const (
	StatusInventoryPending Status = "inventory-pending"
	StatusPlaced           Status = "placed"
)

// ErrIncompleteOrder is the sentinel every ValidationError matches.
var ErrIncompleteOrder = errors.New("incomplete order data")

// ValidationError names each offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrIncompleteOrder, strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrIncompleteOrder
}

// CartItem is one unit of a lesson.
type CartItem struct {
	LessonID any
}

// Order is a validated order payload.
type Order struct {
	ID        string
	Body      docdomain.Document
	Cart      []CartItem
	Status    Status
	PlacedAt  time.Time
	SettledAt time.Time
}

// Parse validates body and returns the order it describes. Fields are checked in
// full so the caller learns every problem at once; nothing is persisted on failure.
func Parse(body docdomain.Document) (*Order, error) {
	problems := map[string]string{}
	if body == nil {
		body = docdomain.Document{}
	}
	for _, field := range RequiredFields {
		raw, present := body[field]
		if !present || raw == nil {
			problems[field] = "is required"
			continue
		}
		s, ok := raw.(string)
		if !ok {
			problems[field] = "must be a string"
			continue
		}
		if strings.TrimSpace(s) == "" {
			problems[field] = "must not be empty"
		}
	}
	cart, cartProblem := parseCart(body[FieldCart])
	if cartProblem != "" {
		problems[FieldCart] = cartProblem
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	return &Order{
		Body:   body.WithoutID(),
		Cart:   cart,
		Status: StatusInventoryPending,
	}, nil
}

func parseCart(raw any) ([]CartItem, string) {
	if raw == nil {
		return nil, "is required"
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, "must be a list"
	}
	if len(items) == 0 {
		return nil, "must not be empty"
	}
	cart := make([]CartItem, 0, len(items))
	for i, item := range items {
		var entry map[string]any
		switch v := item.(type) {
		case docdomain.Document:
			entry = v
		case map[string]any:
			entry = v
		default:
			return nil, fmt.Sprintf("item %d must be an object", i)
		}
		id, present := entry[LessonKeyField]
		if !present || id == nil {
			return nil, fmt.Sprintf("item %d is missing %q", i, LessonKeyField)
		}
		cart = append(cart, CartItem{LessonID: id})
	}
	return cart, ""
}

// PendingDocument renders the order as first persisted, before inventory moves.
func (o *Order) PendingDocument(now time.Time) docdomain.Document {
	doc := o.Body.WithoutID()
	doc[FieldStatus] = string(StatusInventoryPending)
	doc[FieldPlacedAt] = now.UTC().Format(time.RFC3339)
	return doc
}

// LessonIDs returns one entry per cart occurrence.
func (o *Order) LessonIDs() []any {
	ids := make([]any, 0, len(o.Cart))
	for _, item := range o.Cart {
		ids = append(ids, item.LessonID)
	}
	return ids
}

// FromDocument rebuilds a stored order without re-validating customer fields.
func FromDocument(doc docdomain.Document) (*Order, error) {
	id, _ := doc[docdomain.IDField].(string)
	if id == "" {
		return nil, fmt.Errorf("stored order has no %s", docdomain.IDField)
	}
	order := &Order{ID: id, Body: doc.WithoutID()}
	if status, ok := doc.StringField(FieldStatus); ok {
		order.Status = Status(status)
	}
	if raw, ok := doc.StringField(FieldPlacedAt); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			order.PlacedAt = ts
		}
	}
	if raw, ok := doc.StringField(FieldSettledAt); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			order.SettledAt = ts
		}
	}
	if doc[FieldCart] != nil {
		cart, problem := parseCart(doc[FieldCart])
		if problem != "" {
			return nil, fmt.Errorf("stored order %s: cart %s", id, problem)
		}
		order.Cart = cart
	}
	return order, nil
}

// InventoryAdjustments builds one decrement per lesson occurrence.
func InventoryAdjustments(lessonIDs []any) []docdomain.UpdateOp {
	ops := make([]docdomain.UpdateOp, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		ops = append(ops, docdomain.UpdateOp{
			Filter: docdomain.AllOf(docdomain.Eq(LessonKeyField, id)),
			Inc:    map[string]int64{InventoryField: -1},
		})
	}
	return ops
}
