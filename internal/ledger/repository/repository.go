package repository

import (
	"context"

	"github.com/lkh0118/order-inventory/internal/ledger/domain"
)

// StockRepository is bound to one unit of work. Quantities change only
// through UpdateQuantity.
type StockRepository interface {
	// CreateAccount opens a zero-quantity account at version 0.
	CreateAccount(ctx context.Context, productID int64) error
	GetAccount(ctx context.Context, productID int64) (*domain.StockAccount, error)
	// GetAccounts returns accounts keyed by product id; absent ids are omitted.
	GetAccounts(ctx context.Context, productIDs []int64) (map[int64]domain.StockAccount, error)
	// UpdateQuantity writes quantity only if the stored version still equals
	// expectedVersion, bumping it by one. A moved version fails with
	// apperr.ErrConflict.
	UpdateQuantity(ctx context.Context, productID, expectedVersion, quantity int64) error

	InsertMovement(ctx context.Context, m *domain.StockMovement) error
	ListMovements(ctx context.Context, productID int64) ([]domain.StockMovement, error)
	// SumMovements returns the delta total for every product that has movements.
	SumMovements(ctx context.Context) ([]domain.MovementTotal, error)
}
