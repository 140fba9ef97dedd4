package service

import (
	"context"
	"fmt"
	"math"

	"github.com/lkh0118/order-inventory/internal/ledger/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

// Apply is the only write path for stock quantities. It moves acct by delta,
// conditional on acct.Version still being current, and appends the matching
// movement in the same unit. sku is used for error messages only.
func Apply(ctx context.Context, u txn.Unit, sku string, acct domain.StockAccount, delta int64, reason string) (quantity, movementID int64, err error) {
	if delta > 0 && acct.Quantity > math.MaxInt64-delta {
		return 0, 0, fmt.Errorf("%w: %s quantity would overflow (current %d, delta %d)", apperr.ErrInvalidInput, sku, acct.Quantity, delta)
	}
	next := acct.Quantity + delta
	if next < 0 {
		return 0, 0, fmt.Errorf("%w: %s (available %d, requested %d)", apperr.ErrInsufficientStock, sku, acct.Quantity, -delta)
	}
	if err := u.Stock().UpdateQuantity(ctx, acct.ProductID, acct.Version, next); err != nil {
		return 0, 0, err
	}
	m := &domain.StockMovement{ProductID: acct.ProductID, Delta: delta, Reason: reason}
	if err := u.Stock().InsertMovement(ctx, m); err != nil {
		return 0, 0, err
	}
	return next, m.ID, nil
}

// Adjust reads the current account and applies delta to it.
func Adjust(ctx context.Context, u txn.Unit, sku string, productID, delta int64, reason string) (quantity, movementID int64, err error) {
	acct, err := u.Stock().GetAccount(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	return Apply(ctx, u, sku, *acct, delta, reason)
}
