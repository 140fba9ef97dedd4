package repository

import (
	"context"

	"github.com/lkh0118/order-inventory/internal/order/domain"
)

// OrderRepository is bound to one unit of work. Orders are insert-only.
type OrderRepository interface {
	// InsertOrder assigns ID and CreatedAt.
	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertItem(ctx context.Context, item *domain.OrderItem) error
	// GetOrder loads an order with its items, failing with apperr.ErrOrderNotFound.
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}
