// Package txn is the consistency coordinator: it runs every catalog, ledger and
// settlement operation inside one atomic unit of work and replays the whole
// operation when a concurrent write conflict is detected.
package txn

import (
	"context"

	catalogRepo "github.com/lkh0118/order-inventory/internal/catalog/repository"
	ledgerRepo "github.com/lkh0118/order-inventory/internal/ledger/repository"
	orderRepo "github.com/lkh0118/order-inventory/internal/order/repository"
)

// Unit is one open transaction. Repositories returned by a Unit read and write
// inside it; nothing is visible to other units until Commit.
type Unit interface {
	Products() catalogRepo.ProductRepository
	Stock() ledgerRepo.StockRepository
	Orders() orderRepo.OrderRepository
	Commit() error
	Rollback() error
}

type Options struct {
	// ReadOnly units see a single consistent snapshot and must not write.
	ReadOnly bool
}

// Store opens units of work against a transactional backend.
type Store interface {
	Begin(ctx context.Context, opts Options) (Unit, error)
}

// Func is the body of an operation. It may run several times; every run gets
// a fresh Unit and must derive all state from it.
type Func func(ctx context.Context, u Unit) error
