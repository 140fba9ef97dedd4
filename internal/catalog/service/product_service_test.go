package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lkh0118/order-inventory/internal/catalog/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/memstore"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

type mockStockReader struct {
	mock.Mock
}

func (m *mockStockReader) QuantityOf(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func newCatalog(stock StockReader) (CatalogService, *memstore.Store) {
	store := memstore.New()
	return NewCatalogService(txn.NewCoordinator(store, txn.DefaultPolicy()), stock), store
}

func TestCatalogService_Register(t *testing.T) {
	ctx := context.TODO()

	t.Run("Creates product with zero stock account", func(t *testing.T) {
		svc, store := newCatalog(nil)
		p, err := svc.Register(ctx, domain.RegisterProductRequest{SKU: "A1", Name: "Apple", Price: 1000})
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
		assert.Equal(t, "A1", p.SKU)
		assert.Equal(t, int64(1000), p.Price)

		u, err := store.Begin(ctx, txn.Options{ReadOnly: true})
		require.NoError(t, err)
		defer u.Rollback()
		acct, err := u.Stock().GetAccount(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), acct.Quantity)
	})

	t.Run("Duplicate sku", func(t *testing.T) {
		svc, _ := newCatalog(nil)
		_, err := svc.Register(ctx, domain.RegisterProductRequest{SKU: "A1", Name: "Apple", Price: 1000})
		require.NoError(t, err)

		_, err = svc.Register(ctx, domain.RegisterProductRequest{SKU: "A1", Name: "Other", Price: 5})
		assert.ErrorIs(t, err, apperr.ErrDuplicateSKU)
		assert.Contains(t, err.Error(), "A1")
	})

	t.Run("Invalid input", func(t *testing.T) {
		svc, _ := newCatalog(nil)
		cases := []domain.RegisterProductRequest{
			{SKU: "", Name: "x", Price: 1},
			{SKU: "  ", Name: "x", Price: 1},
			{SKU: "X1", Name: "", Price: 1},
			{SKU: "X1", Name: "x", Price: -1},
		}
		for _, req := range cases {
			_, err := svc.Register(ctx, req)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput, "request %+v", req)
		}
		products, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestCatalogService_ResolveManyAndList(t *testing.T) {
	ctx := context.TODO()
	svc, _ := newCatalog(nil)
	for _, sku := range []string{"C3", "A1", "B2"} {
		_, err := svc.Register(ctx, domain.RegisterProductRequest{SKU: sku, Name: sku, Price: 10})
		require.NoError(t, err)
	}

	resolved, err := svc.ResolveMany(ctx, []string{"A1", "B2", "missing"})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Contains(t, resolved, "A1")
	assert.Contains(t, resolved, "B2")
	assert.NotContains(t, resolved, "missing")

	products, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"C3", "A1", "B2"}, []string{products[0].SKU, products[1].SKU, products[2].SKU})
	assert.Less(t, products[0].ID, products[1].ID)
	assert.Less(t, products[1].ID, products[2].ID)
}

func TestCatalogService_ListWithStock(t *testing.T) {
	ctx := context.TODO()
	stock := new(mockStockReader)
	svc, _ := newCatalog(stock)

	a, err := svc.Register(ctx, domain.RegisterProductRequest{SKU: "A1", Name: "a", Price: 10})
	require.NoError(t, err)
	b, err := svc.Register(ctx, domain.RegisterProductRequest{SKU: "B2", Name: "b", Price: 20})
	require.NoError(t, err)

	stock.On("QuantityOf", mock.Anything, a.ID).Return(int64(7), nil).Once()
	stock.On("QuantityOf", mock.Anything, b.ID).Return(int64(0), errors.New("store unavailable")).Once()

	views, err := svc.ListWithStock(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "A1", views[0].SKU)
	assert.Equal(t, int64(7), views[0].Quantity)
	assert.Equal(t, "B2", views[1].SKU)
	assert.Equal(t, int64(0), views[1].Quantity)
	stock.AssertExpectations(t)
}
