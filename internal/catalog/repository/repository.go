package repository

import (
	"context"

	"github.com/lkh0118/order-inventory/internal/catalog/domain"
)

// ProductRepository is bound to one unit of work.
type ProductRepository interface {
	// Insert assigns ID and CreatedAt. Fails with apperr.ErrDuplicateSKU when
	// the sku is taken.
	Insert(ctx context.Context, p *domain.Product) error
	// GetBySKUs returns only the products that exist; missing skus are absent.
	GetBySKUs(ctx context.Context, skus []string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// List returns every product ordered by id.
	List(ctx context.Context) ([]domain.Product, error)
}
