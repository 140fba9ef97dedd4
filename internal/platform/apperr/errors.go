// Package apperr holds the error kinds shared by the catalog, ledger and
// order packages. Callers wrap them with the offending identifier, e.g.
// fmt.Errorf("%w: %s", apperr.ErrInsufficientStock, sku), and match with errors.Is.
package apperr

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateSKU      = errors.New("duplicate sku")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")

	// ErrConflict is the only kind the transaction coordinator retries.
	ErrConflict = errors.New("concurrent update conflict")
	ErrTimeout  = errors.New("operation timed out")
)

// IsRetryable reports whether err is a write-write conflict that may succeed
// when the whole operation is replayed against fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
