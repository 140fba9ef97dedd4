// Package memstore is an in-process transactional store. Writes are buffered
// per unit and validated at commit: a stock account whose committed version
// moved since the unit first touched it aborts the commit with
// apperr.ErrConflict, and a sku registered by another unit aborts it with
// apperr.ErrDuplicateSKU. Stock account reads in write units take a per-account
// lock held until the unit ends, the way SELECT ... FOR UPDATE does. Read-only
// units hold a shared lock for their whole lifetime and therefore see one
// snapshot.
package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	catalogDomain "github.com/lkh0118/order-inventory/internal/catalog/domain"
	catalogRepo "github.com/lkh0118/order-inventory/internal/catalog/repository"
	ledgerDomain "github.com/lkh0118/order-inventory/internal/ledger/domain"
	ledgerRepo "github.com/lkh0118/order-inventory/internal/ledger/repository"
	orderDomain "github.com/lkh0118/order-inventory/internal/order/domain"
	orderRepo "github.com/lkh0118/order-inventory/internal/order/repository"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

var (
	ErrUnitClosed   = errors.New("memstore: unit already committed or rolled back")
	ErrReadOnlyUnit = errors.New("memstore: write attempted in read-only unit")
)

type Store struct {
	mu sync.RWMutex

	products  map[int64]catalogDomain.Product
	bySKU     map[string]int64
	accounts  map[int64]ledgerDomain.StockAccount
	movements []ledgerDomain.StockMovement
	orders    map[int64]orderDomain.Order
	items     map[int64][]orderDomain.OrderItem

	// rowLocks maps product id to a one-slot channel used as a ctx-aware mutex.
	rowLocks sync.Map

	// Sequences behave like database sequences: values are never reused, and
	// rolled-back units leave gaps.
	productSeq  atomic.Int64
	movementSeq atomic.Int64
	orderSeq    atomic.Int64
	itemSeq     atomic.Int64

	now func() time.Time
}

var _ txn.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products: make(map[int64]catalogDomain.Product),
		bySKU:    make(map[string]int64),
		accounts: make(map[int64]ledgerDomain.StockAccount),
		orders:   make(map[int64]orderDomain.Order),
		items:    make(map[int64][]orderDomain.OrderItem),
		now:      time.Now,
	}
}

func (s *Store) Begin(ctx context.Context, opts txn.Options) (txn.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := &unit{
		store:    s,
		ctx:      ctx,
		readOnly: opts.ReadOnly,
		skus:     make(map[string]int64),
		accounts: make(map[int64]*pendingAccount),
		held:     make(map[int64]chan struct{}),
	}
	if opts.ReadOnly {
		s.mu.RLock()
	}
	u.products = &productRepo{u: u}
	u.stock = &stockRepo{u: u}
	u.orderRepo = &orderRepository{u: u}
	return u, nil
}

// pendingAccount is a buffered account write. base is the committed version
// the unit built on; created marks an account that must not exist yet.
type pendingAccount struct {
	account ledgerDomain.StockAccount
	base    int64
	created bool
}

type unit struct {
	store    *Store
	ctx      context.Context
	readOnly bool
	closed   bool

	newProducts  []catalogDomain.Product
	skus         map[string]int64
	accounts     map[int64]*pendingAccount
	newMovements []ledgerDomain.StockMovement
	newOrders    []orderDomain.Order
	newItems     []orderDomain.OrderItem

	held map[int64]chan struct{}

	products  *productRepo
	stock     *stockRepo
	orderRepo *orderRepository
}

func (u *unit) Products() catalogRepo.ProductRepository { return u.products }
func (u *unit) Stock() ledgerRepo.StockRepository       { return u.stock }
func (u *unit) Orders() orderRepo.OrderRepository       { return u.orderRepo }

// read runs fn against committed state. Read-only units already hold the
// shared lock; taking it again could deadlock behind a waiting writer.
func (u *unit) read(fn func()) {
	if !u.readOnly {
		u.store.mu.RLock()
		defer u.store.mu.RUnlock()
	}
	fn()
}

// lockRow blocks until this unit owns productID's account or ctx ends.
func (u *unit) lockRow(ctx context.Context, productID int64) error {
	if u.readOnly || u.closed {
		return nil
	}
	if _, ok := u.held[productID]; ok {
		return nil
	}
	v, _ := u.store.rowLocks.LoadOrStore(productID, make(chan struct{}, 1))
	ch := v.(chan struct{})
	select {
	case ch <- struct{}{}:
		u.held[productID] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *unit) releaseRows() {
	for id, ch := range u.held {
		<-ch
		delete(u.held, id)
	}
}

func (u *unit) writable() error {
	if u.closed {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	return nil
}

func (u *unit) Commit() error {
	if u.closed {
		return ErrUnitClosed
	}
	if u.readOnly {
		u.closed = true
		u.store.mu.RUnlock()
		return nil
	}
	if err := u.ctx.Err(); err != nil {
		return err
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := u.validate(); err != nil {
		return err
	}
	u.apply()
	u.closed = true
	u.releaseRows()
	return nil
}

func (u *unit) Rollback() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.readOnly {
		u.store.mu.RUnlock()
	}
	u.releaseRows()
	return nil
}

// validate runs under the exclusive lock.
func (u *unit) validate() error {
	s := u.store
	for sku := range u.skus {
		if _, taken := s.bySKU[sku]; taken {
			return duplicateSKU(sku)
		}
	}
	for productID, p := range u.accounts {
		committed, exists := s.accounts[productID]
		if p.created {
			if exists {
				return conflict(productID, -1)
			}
			continue
		}
		if !exists || committed.Version != p.base {
			return conflict(productID, p.base)
		}
	}
	return nil
}

// apply runs under the exclusive lock after validate.
func (u *unit) apply() {
	s := u.store
	for _, p := range u.newProducts {
		s.products[p.ID] = p
		s.bySKU[p.SKU] = p.ID
	}
	for productID, p := range u.accounts {
		s.accounts[productID] = p.account
	}
	s.movements = append(s.movements, u.newMovements...)
	for _, o := range u.newOrders {
		o.Items = nil
		s.orders[o.ID] = o
	}
	for _, it := range u.newItems {
		s.items[it.OrderID] = append(s.items[it.OrderID], it)
	}
}
