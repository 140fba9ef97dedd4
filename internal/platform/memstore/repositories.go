package memstore

import (
	"context"
	"fmt"
	"sort"

	catalogDomain "github.com/lkh0118/order-inventory/internal/catalog/domain"
	ledgerDomain "github.com/lkh0118/order-inventory/internal/ledger/domain"
	ledgerRepo "github.com/lkh0118/order-inventory/internal/ledger/repository"
	orderDomain "github.com/lkh0118/order-inventory/internal/order/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
)

func duplicateSKU(sku string) error {
	return fmt.Errorf("%w: %s", apperr.ErrDuplicateSKU, sku)
}

func conflict(productID, version int64) error {
	return fmt.Errorf("%w: stock account %d changed since version %d", apperr.ErrConflict, productID, version)
}

// --- products ---

type productRepo struct{ u *unit }

func (r *productRepo) Insert(ctx context.Context, p *catalogDomain.Product) error {
	u := r.u
	if err := u.writable(); err != nil {
		return err
	}
	if _, pending := u.skus[p.SKU]; pending {
		return duplicateSKU(p.SKU)
	}
	var taken bool
	u.read(func() { _, taken = u.store.bySKU[p.SKU] })
	if taken {
		return duplicateSKU(p.SKU)
	}

	p.ID = u.store.productSeq.Add(1)
	p.CreatedAt = u.store.now()
	u.newProducts = append(u.newProducts, *p)
	u.skus[p.SKU] = p.ID
	return nil
}

func (r *productRepo) GetBySKUs(ctx context.Context, skus []string) ([]catalogDomain.Product, error) {
	u := r.u
	found := []catalogDomain.Product{}
	u.read(func() {
		for _, sku := range skus {
			if id, ok := u.store.bySKU[sku]; ok {
				found = append(found, u.store.products[id])
			}
		}
	})
	for _, p := range u.newProducts {
		for _, sku := range skus {
			if p.SKU == sku {
				found = append(found, p)
				break
			}
		}
	}
	sortProducts(found)
	return found, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*catalogDomain.Product, error) {
	u := r.u
	for _, p := range u.newProducts {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	var (
		p  catalogDomain.Product
		ok bool
	)
	u.read(func() { p, ok = u.store.products[id] })
	if !ok {
		return nil, fmt.Errorf("%w: id %d", apperr.ErrProductNotFound, id)
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context) ([]catalogDomain.Product, error) {
	u := r.u
	products := []catalogDomain.Product{}
	u.read(func() {
		for _, p := range u.store.products {
			products = append(products, p)
		}
	})
	products = append(products, u.newProducts...)
	sortProducts(products)
	return products, nil
}

func sortProducts(products []catalogDomain.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
}

// --- stock ---

type stockRepo struct{ u *unit }

// view returns the account as this unit sees it.
func (r *stockRepo) view(productID int64) (ledgerDomain.StockAccount, bool) {
	u := r.u
	if p, ok := u.accounts[productID]; ok {
		return p.account, true
	}
	var (
		a  ledgerDomain.StockAccount
		ok bool
	)
	u.read(func() { a, ok = u.store.accounts[productID] })
	return a, ok
}

func (r *stockRepo) CreateAccount(ctx context.Context, productID int64) error {
	u := r.u
	if err := u.writable(); err != nil {
		return err
	}
	if _, exists := r.view(productID); exists {
		return fmt.Errorf("stock account for product %d already exists", productID)
	}
	u.accounts[productID] = &pendingAccount{
		account: ledgerDomain.StockAccount{ProductID: productID, UpdatedAt: u.store.now()},
		created: true,
	}
	return nil
}

func (r *stockRepo) GetAccount(ctx context.Context, productID int64) (*ledgerDomain.StockAccount, error) {
	if err := r.u.lockRow(ctx, productID); err != nil {
		return nil, err
	}
	a, ok := r.view(productID)
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ledgerRepo.ErrStockAccountNotFound, productID)
	}
	return &a, nil
}

func (r *stockRepo) GetAccounts(ctx context.Context, productIDs []int64) (map[int64]ledgerDomain.StockAccount, error) {
	accounts := make(map[int64]ledgerDomain.StockAccount, len(productIDs))
	for _, id := range productIDs {
		if err := r.u.lockRow(ctx, id); err != nil {
			return nil, err
		}
		if a, ok := r.view(id); ok {
			accounts[id] = a
		}
	}
	return accounts, nil
}

func (r *stockRepo) UpdateQuantity(ctx context.Context, productID, expectedVersion, quantity int64) error {
	u := r.u
	if err := u.writable(); err != nil {
		return err
	}
	current, ok := r.view(productID)
	if !ok {
		return fmt.Errorf("%w: product %d", ledgerRepo.ErrStockAccountNotFound, productID)
	}
	if current.Version != expectedVersion {
		return conflict(productID, expectedVersion)
	}
	// Mirrors the CHECK (quantity >= 0) constraint of the SQL schema.
	if quantity < 0 {
		return fmt.Errorf("%w: product %d", apperr.ErrInsufficientStock, productID)
	}

	p, pending := u.accounts[productID]
	if !pending {
		p = &pendingAccount{base: current.Version}
		u.accounts[productID] = p
	}
	p.account = ledgerDomain.StockAccount{
		ProductID: productID,
		Quantity:  quantity,
		Version:   expectedVersion + 1,
		UpdatedAt: u.store.now(),
	}
	return nil
}

func (r *stockRepo) InsertMovement(ctx context.Context, m *ledgerDomain.StockMovement) error {
	u := r.u
	if err := u.writable(); err != nil {
		return err
	}
	m.ID = u.store.movementSeq.Add(1)
	m.CreatedAt = u.store.now()
	u.newMovements = append(u.newMovements, *m)
	return nil
}

func (r *stockRepo) ListMovements(ctx context.Context, productID int64) ([]ledgerDomain.StockMovement, error) {
	u := r.u
	movements := []ledgerDomain.StockMovement{}
	u.read(func() {
		for _, m := range u.store.movements {
			if m.ProductID == productID {
				movements = append(movements, m)
			}
		}
	})
	for _, m := range u.newMovements {
		if m.ProductID == productID {
			movements = append(movements, m)
		}
	}
	sort.Slice(movements, func(i, j int) bool { return movements[i].ID < movements[j].ID })
	return movements, nil
}

func (r *stockRepo) SumMovements(ctx context.Context) ([]ledgerDomain.MovementTotal, error) {
	u := r.u
	sums := make(map[int64]int64)
	u.read(func() {
		for _, m := range u.store.movements {
			sums[m.ProductID] += m.Delta
		}
	})
	for _, m := range u.newMovements {
		sums[m.ProductID] += m.Delta
	}
	totals := make([]ledgerDomain.MovementTotal, 0, len(sums))
	for id, sum := range sums {
		totals = append(totals, ledgerDomain.MovementTotal{ProductID: id, Sum: sum})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].ProductID < totals[j].ProductID })
	return totals, nil
}

// --- orders ---

type orderRepository struct{ u *unit }

func (r *orderRepository) InsertOrder(ctx context.Context, order *orderDomain.Order) error {
	u := r.u
	if err := u.writable(); err != nil {
		return err
	}
	if order.Status == "" {
		order.Status = orderDomain.StatusCreated
	}
	order.ID = u.store.orderSeq.Add(1)
	order.CreatedAt = u.store.now()
	u.newOrders = append(u.newOrders, *order)
	return nil
}

func (r *orderRepository) InsertItem(ctx context.Context, item *orderDomain.OrderItem) error {
	u := r.u
	if err := u.writable(); err != nil {
		return err
	}
	item.ID = u.store.itemSeq.Add(1)
	u.newItems = append(u.newItems, *item)
	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id int64) (*orderDomain.Order, error) {
	u := r.u
	var (
		o     orderDomain.Order
		found bool
		items []orderDomain.OrderItem
	)
	u.read(func() {
		o, found = u.store.orders[id]
		items = append(items, u.store.items[id]...)
	})
	for _, pending := range u.newOrders {
		if pending.ID == id {
			o, found = pending, true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", apperr.ErrOrderNotFound, id)
	}
	for _, it := range u.newItems {
		if it.OrderID == id {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	o.Items = append([]orderDomain.OrderItem{}, items...)
	return &o, nil
}
