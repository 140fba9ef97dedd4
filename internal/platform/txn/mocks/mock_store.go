package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	catalogRepo "github.com/lkh0118/order-inventory/internal/catalog/repository"
	ledgerRepo "github.com/lkh0118/order-inventory/internal/ledger/repository"
	orderRepo "github.com/lkh0118/order-inventory/internal/order/repository"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Begin(ctx context.Context, opts txn.Options) (txn.Unit, error) {
	args := m.Called(ctx, opts)
	if res := args.Get(0); res != nil {
		return res.(txn.Unit), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUnit struct {
	mock.Mock
}

func (m *MockUnit) Products() catalogRepo.ProductRepository {
	args := m.Called()
	if res := args.Get(0); res != nil {
		return res.(catalogRepo.ProductRepository)
	}
	return nil
}

func (m *MockUnit) Stock() ledgerRepo.StockRepository {
	args := m.Called()
	if res := args.Get(0); res != nil {
		return res.(ledgerRepo.StockRepository)
	}
	return nil
}

func (m *MockUnit) Orders() orderRepo.OrderRepository {
	args := m.Called()
	if res := args.Get(0); res != nil {
		return res.(orderRepo.OrderRepository)
	}
	return nil
}

func (m *MockUnit) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnit) Rollback() error {
	args := m.Called()
	return args.Error(0)
}
