package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/lkh0118/order-inventory/internal/catalog/domain"
	ledgerDomain "github.com/lkh0118/order-inventory/internal/ledger/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

func seedProduct(t *testing.T, s *Store, sku string) int64 {
	t.Helper()
	ctx := context.Background()
	u, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	p := &catalogDomain.Product{SKU: sku, Name: sku, Price: 100}
	require.NoError(t, u.Products().Insert(ctx, p))
	require.NoError(t, u.Stock().CreateAccount(ctx, p.ID))
	require.NoError(t, u.Commit())
	return p.ID
}

func TestStore_CommitMakesWritesVisible(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedProduct(t, s, "A1")

	u, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	require.NoError(t, u.Stock().UpdateQuantity(ctx, id, 0, 10))
	require.NoError(t, u.Stock().InsertMovement(ctx, &ledgerDomain.StockMovement{ProductID: id, Delta: 10, Reason: "restock"}))

	t.Run("not visible to other units before commit", func(t *testing.T) {
		other, err := s.Begin(ctx, txn.Options{})
		require.NoError(t, err)
		defer other.Rollback()
		acct, err := other.Stock().GetAccount(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), acct.Quantity)
	})

	require.NoError(t, u.Commit())

	r, err := s.Begin(ctx, txn.Options{ReadOnly: true})
	require.NoError(t, err)
	defer r.Rollback()
	acct, err := r.Stock().GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(10), acct.Quantity)
	assert.Equal(t, int64(1), acct.Version)
	movements, err := r.Stock().ListMovements(ctx, id)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestStore_DetectsLostUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedProduct(t, s, "A1")

	first, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	second, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)

	// Both units read version 0 and write independently.
	require.NoError(t, first.Stock().UpdateQuantity(ctx, id, 0, 5))
	require.NoError(t, second.Stock().UpdateQuantity(ctx, id, 0, 7))

	require.NoError(t, first.Commit())
	err = second.Commit()
	assert.ErrorIs(t, err, apperr.ErrConflict)
	require.NoError(t, second.Rollback())

	t.Run("stale version fails immediately", func(t *testing.T) {
		third, err := s.Begin(ctx, txn.Options{})
		require.NoError(t, err)
		defer third.Rollback()
		err = third.Stock().UpdateQuantity(ctx, id, 0, 1)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestStore_RollbackDiscardsEverything(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	p := &catalogDomain.Product{SKU: "B1", Name: "b", Price: 1}
	require.NoError(t, u.Products().Insert(ctx, p))
	require.NoError(t, u.Stock().CreateAccount(ctx, p.ID))
	require.NoError(t, u.Rollback())

	r, err := s.Begin(ctx, txn.Options{ReadOnly: true})
	require.NoError(t, err)
	defer r.Rollback()
	products, err := r.Products().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	_, err = r.Stock().GetAccount(ctx, p.ID)
	assert.Error(t, err)
}

func TestStore_DuplicateSKU(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProduct(t, s, "A1")

	t.Run("against committed sku", func(t *testing.T) {
		u, err := s.Begin(ctx, txn.Options{})
		require.NoError(t, err)
		defer u.Rollback()
		err = u.Products().Insert(ctx, &catalogDomain.Product{SKU: "A1", Name: "again"})
		assert.ErrorIs(t, err, apperr.ErrDuplicateSKU)
	})

	t.Run("two units racing for the same sku", func(t *testing.T) {
		a, err := s.Begin(ctx, txn.Options{})
		require.NoError(t, err)
		b, err := s.Begin(ctx, txn.Options{})
		require.NoError(t, err)
		require.NoError(t, a.Products().Insert(ctx, &catalogDomain.Product{SKU: "Z9", Name: "a"}))
		require.NoError(t, b.Products().Insert(ctx, &catalogDomain.Product{SKU: "Z9", Name: "b"}))
		require.NoError(t, a.Commit())
		assert.ErrorIs(t, b.Commit(), apperr.ErrDuplicateSKU)
		require.NoError(t, b.Rollback())
	})
}

func TestStore_ReadOnlyUnitRejectsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	r, err := s.Begin(ctx, txn.Options{ReadOnly: true})
	require.NoError(t, err)
	defer r.Rollback()

	err = r.Products().Insert(ctx, &catalogDomain.Product{SKU: "X", Name: "x"})
	assert.ErrorIs(t, err, ErrReadOnlyUnit)
}

func TestStore_NegativeQuantityRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedProduct(t, s, "A1")

	u, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	defer u.Rollback()
	err = u.Stock().UpdateQuantity(ctx, id, 0, -1)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
}

func TestStore_AccountReadsLockUntilUnitEnds(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedProduct(t, s, "A1")

	first, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	acct, err := first.Stock().GetAccount(ctx, id)
	require.NoError(t, err)

	t.Run("competing writer waits", func(t *testing.T) {
		second, err := s.Begin(ctx, txn.Options{})
		require.NoError(t, err)
		defer second.Rollback()
		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = second.Stock().GetAccounts(waitCtx, []int64{id})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("readers are not blocked", func(t *testing.T) {
		r, err := s.Begin(ctx, txn.Options{ReadOnly: true})
		require.NoError(t, err)
		defer r.Rollback()
		_, err = r.Stock().GetAccount(ctx, id)
		assert.NoError(t, err)
	})

	require.NoError(t, first.Stock().UpdateQuantity(ctx, id, acct.Version, 4))
	require.NoError(t, first.Commit())

	// The next writer sees the committed version instead of conflicting.
	next, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	defer next.Rollback()
	latest, err := next.Stock().GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), latest.Quantity)
	assert.NoError(t, next.Stock().UpdateQuantity(ctx, id, latest.Version, 3))
	assert.NoError(t, next.Commit())
}

func TestStore_RollbackReleasesAccountLocks(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedProduct(t, s, "A1")

	first, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	_, err = first.Stock().GetAccount(ctx, id)
	require.NoError(t, err)
	require.NoError(t, first.Rollback())

	second, err := s.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	defer second.Rollback()
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = second.Stock().GetAccount(waitCtx, id)
	assert.NoError(t, err)
}
