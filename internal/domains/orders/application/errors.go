package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals an order payload that failed validation.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrConflict signals an idempotency key that cannot be used right now.
	ErrConflict = errors.New("order request conflict")
	// ErrOrderNotFound signals a settlement step that targeted an unknown order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPersistOrder signals that the order itself could not be stored.
	ErrPersistOrder = errors.New("failed to persist order")
)

// PartialPlacementError reports an order that was stored but whose inventory
// adjustment did not complete. The order remains in StatusInventoryPending until
// reconciliation settles it.
type PartialPlacementError struct {
	OrderID string
	Status  domain.Status
	Err     error
}

func (e *PartialPlacementError) Error() string {
	return fmt.Sprintf("order %s left %s: %v", e.OrderID, e.Status, e.Err)
}

func (e *PartialPlacementError) Unwrap() error {
	return e.Err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrIncompleteOrder) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrIdempotencyInFlight) || errors.Is(err, ports.ErrIdempotencyConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
