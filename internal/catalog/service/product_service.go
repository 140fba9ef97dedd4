package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lkh0118/order-inventory/internal/catalog/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

const stockLookupConcurrency = 8

// StockReader supplies advisory quantities for listings.
type StockReader interface {
	QuantityOf(ctx context.Context, productID int64) (int64, error)
}

type CatalogService interface {
	Register(ctx context.Context, req domain.RegisterProductRequest) (*domain.Product, error)
	ResolveMany(ctx context.Context, skus []string) (map[string]domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListWithStock(ctx context.Context) ([]domain.ProductView, error)
}

type catalogServiceImpl struct {
	coord *txn.Coordinator
	stock StockReader
}

func NewCatalogService(coord *txn.Coordinator, stock StockReader) CatalogService {
	return &catalogServiceImpl{coord: coord, stock: stock}
}

// Register creates the product and its zero-quantity stock account in one unit.
func (s *catalogServiceImpl) Register(ctx context.Context, req domain.RegisterProductRequest) (*domain.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	name := strings.TrimSpace(req.Name)
	switch {
	case sku == "":
		return nil, fmt.Errorf("%w: sku must not be empty", apperr.ErrInvalidInput)
	case name == "":
		return nil, fmt.Errorf("%w: name must not be empty", apperr.ErrInvalidInput)
	case req.Price < 0:
		return nil, fmt.Errorf("%w: price must not be negative, got %d", apperr.ErrInvalidInput, req.Price)
	}

	var product *domain.Product
	err := s.coord.Run(ctx, "catalog.register", func(ctx context.Context, u txn.Unit) error {
		p := &domain.Product{SKU: sku, Name: name, Price: req.Price}
		if err := u.Products().Insert(ctx, p); err != nil {
			return err
		}
		if err := u.Stock().CreateAccount(ctx, p.ID); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		logger.Error("Svc.Register: failed to register product", err, "sku", sku)
		return nil, err
	}
	logger.Info("Svc.Register: product registered", "sku", product.SKU, "product_id", product.ID)
	return product, nil
}

func (s *catalogServiceImpl) ResolveMany(ctx context.Context, skus []string) (map[string]domain.Product, error) {
	var resolved map[string]domain.Product
	err := s.coord.Read(ctx, "catalog.resolve", func(ctx context.Context, u txn.Unit) error {
		var err error
		resolved, err = ResolveMany(ctx, u, skus)
		return err
	})
	return resolved, err
}

func (s *catalogServiceImpl) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := s.coord.Read(ctx, "catalog.list", func(ctx context.Context, u txn.Unit) error {
		var err error
		products, err = u.Products().List(ctx)
		return err
	})
	return products, err
}

// ListWithStock fans out one quantity lookup per product. A failed lookup
// reports quantity 0 rather than failing the listing.
func (s *catalogServiceImpl) ListWithStock(ctx context.Context) ([]domain.ProductView, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProductView, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stockLookupConcurrency)
	for i, p := range products {
		i, p := i, p
		views[i] = domain.ProductView{Product: p}
		g.Go(func() error {
			qty, err := s.stock.QuantityOf(gctx, p.ID)
			if err != nil {
				logger.Error("Svc.ListWithStock: failed to get stock for product", err, "sku", p.SKU)
				return nil
			}
			views[i].Quantity = qty
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// ResolveMany looks skus up inside an open unit. Only matches are returned;
// callers decide how to report the misses.
func ResolveMany(ctx context.Context, u txn.Unit, skus []string) (map[string]domain.Product, error) {
	products, err := u.Products().GetBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]domain.Product, len(products))
	for _, p := range products {
		resolved[p.SKU] = p
	}
	return resolved, nil
}
