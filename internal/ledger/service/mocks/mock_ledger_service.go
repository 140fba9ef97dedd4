package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lkh0118/order-inventory/internal/ledger/domain"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Adjust(ctx context.Context, productID, delta int64, reason string) (*domain.AdjustStockResponse, error) {
	args := m.Called(ctx, productID, delta, reason)
	if res := args.Get(0); res != nil {
		return res.(*domain.AdjustStockResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) AdjustBySKU(ctx context.Context, sku string, req domain.AdjustStockRequest) (*domain.AdjustStockResponse, error) {
	args := m.Called(ctx, sku, req)
	if res := args.Get(0); res != nil {
		return res.(*domain.AdjustStockResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) QuantityOf(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) StockLevel(ctx context.Context, sku string) (*domain.StockLevel, error) {
	args := m.Called(ctx, sku)
	if res := args.Get(0); res != nil {
		return res.(*domain.StockLevel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) Movements(ctx context.Context, sku string) ([]domain.StockMovement, error) {
	args := m.Called(ctx, sku)
	if res := args.Get(0); res != nil {
		return res.([]domain.StockMovement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context) (*domain.ReconcileReport, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(*domain.ReconcileReport), args.Error(1)
	}
	return nil, args.Error(1)
}
