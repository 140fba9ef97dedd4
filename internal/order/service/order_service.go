package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	catalogDomain "github.com/lkh0118/order-inventory/internal/catalog/domain"
	catalogService "github.com/lkh0118/order-inventory/internal/catalog/service"
	ledgerRepo "github.com/lkh0118/order-inventory/internal/ledger/repository"
	ledgerService "github.com/lkh0118/order-inventory/internal/ledger/service"
	"github.com/lkh0118/order-inventory/internal/order/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

type orderServiceImpl struct {
	coord *txn.Coordinator
}

func NewOrderService(coord *txn.Coordinator) OrderService {
	return &orderServiceImpl{coord: coord}
}

// line is one validated request item, joined with its product once resolved.
type line struct {
	sku     string
	qty     int64
	product catalogDomain.Product
}

// MovementReason is the ledger reason recorded for an order's stock movements.
func MovementReason(orderID int64) string {
	return fmt.Sprintf("Order#%d", orderID)
}

func validateItems(items []domain.CreateOrderItemRequest) ([]line, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", apperr.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(items))
	lines := make([]line, 0, len(items))
	for _, it := range items {
		sku := strings.TrimSpace(it.SKU)
		if sku == "" {
			return nil, fmt.Errorf("%w: item sku must not be empty", apperr.ErrInvalidInput)
		}
		if it.Qty <= 0 {
			return nil, fmt.Errorf("%w: qty for %s must be positive, got %d", apperr.ErrInvalidInput, sku, it.Qty)
		}
		if _, dup := seen[sku]; dup {
			return nil, fmt.Errorf("%w: sku %s appears more than once", apperr.ErrInvalidInput, sku)
		}
		seen[sku] = struct{}{}
		lines = append(lines, line{sku: sku, qty: it.Qty})
	}
	return lines, nil
}

// CreateOrder settles the request as one unit: every sku resolves, every
// product has enough stock, and the order, its items, the decrements and the
// movements commit together or not at all.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	lines, err := validateItems(req.Items)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.coord.Run(ctx, "order.create", func(ctx context.Context, u txn.Unit) error {
		// Each attempt settles on its own copy so a retry starts clean.
		attempt := make([]line, len(lines))
		copy(attempt, lines)
		o, err := settle(ctx, u, attempt)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		logger.Error("Svc.CreateOrder: settlement failed", err, "items", len(lines))
		return nil, err
	}
	logger.Info("Svc.CreateOrder: order created", "order_id", order.ID, "total_price", order.TotalPrice, "items", len(order.Items))
	return order, nil
}

func settle(ctx context.Context, u txn.Unit, lines []line) (*domain.Order, error) {
	skus := make([]string, len(lines))
	for i, l := range lines {
		skus[i] = l.sku
	}
	resolved, err := catalogService.ResolveMany(ctx, u, skus)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		p, ok := resolved[lines[i].sku]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, lines[i].sku)
		}
		lines[i].product = p
	}

	// Stock rows are touched in product id order so two orders sharing
	// products always lock them in the same sequence.
	sort.Slice(lines, func(i, j int) bool { return lines[i].product.ID < lines[j].product.ID })

	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.product.ID
	}
	accounts, err := u.Stock().GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, l := range lines {
		acct, ok := accounts[l.product.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ledgerRepo.ErrStockAccountNotFound, l.sku)
		}
		if acct.Quantity-l.qty < 0 {
			return nil, fmt.Errorf("%w: %s (available %d, requested %d)", apperr.ErrInsufficientStock, l.sku, acct.Quantity, l.qty)
		}
		lineTotal, ok := mulNonNegative(l.product.Price, l.qty)
		if !ok || total > math.MaxInt64-lineTotal {
			return nil, fmt.Errorf("%w: total price overflows for %s", apperr.ErrInvalidInput, l.sku)
		}
		total += lineTotal
	}

	order := &domain.Order{Status: domain.StatusCreated, TotalPrice: total}
	if err := u.Orders().InsertOrder(ctx, order); err != nil {
		return nil, err
	}
	reason := MovementReason(order.ID)

	order.Items = make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		if _, _, err := ledgerService.Apply(ctx, u, l.sku, accounts[l.product.ID], -l.qty, reason); err != nil {
			return nil, err
		}
		item := domain.OrderItem{
			OrderID:   order.ID,
			ProductID: l.product.ID,
			SKU:       l.sku,
			Qty:       l.qty,
			UnitPrice: l.product.Price,
			LineTotal: l.product.Price * l.qty,
		}
		if err := u.Orders().InsertItem(ctx, &item); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func mulNonNegative(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.coord.Read(ctx, "order.get", func(ctx context.Context, u txn.Unit) error {
		var err error
		order, err = u.Orders().GetOrder(ctx, id)
		return err
	})
	return order, err
}
