package ports

import (
	"context"

	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
)

// Notifier tells the shop operator about placed orders.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *domain.Order) error
}
