package txn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	catalogRepo "github.com/lkh0118/order-inventory/internal/catalog/repository"
	ledgerRepo "github.com/lkh0118/order-inventory/internal/ledger/repository"
	orderRepo "github.com/lkh0118/order-inventory/internal/order/repository"
	"github.com/lkh0118/order-inventory/internal/platform/database"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

// PostgresStore opens READ COMMITTED units for writes and REPEATABLE READ
// read-only units for snapshot reads. Write units read stock accounts with
// FOR UPDATE; the version check in StockRepository.UpdateQuantity stays as a
// guard for writes that skipped the read.
type PostgresStore struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewPostgresStore(db *sql.DB, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, lockTimeout: lockTimeout}
}

func (s *PostgresStore) Begin(ctx context.Context, opts Options) (Unit, error) {
	txOpts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	if opts.ReadOnly {
		txOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx, err := s.db.BeginTx(ctx, txOpts)
	if err != nil {
		logger.Error("PostgresStore.Begin: begin tx failed", err)
		return nil, database.Classify(err)
	}
	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			logger.Error("PostgresStore.Begin: set lock_timeout failed", err)
			return nil, database.Classify(err)
		}
	}
	stock := ledgerRepo.NewLockingStockRepository(tx)
	if opts.ReadOnly {
		stock = ledgerRepo.NewPostgresStockRepository(tx)
	}
	return &postgresUnit{
		tx:       tx,
		products: catalogRepo.NewPostgresProductRepository(tx),
		stock:    stock,
		orders:   orderRepo.NewPostgresOrderRepository(tx),
	}, nil
}

type postgresUnit struct {
	tx       *sql.Tx
	products catalogRepo.ProductRepository
	stock    ledgerRepo.StockRepository
	orders   orderRepo.OrderRepository
}

func (u *postgresUnit) Products() catalogRepo.ProductRepository { return u.products }
func (u *postgresUnit) Stock() ledgerRepo.StockRepository       { return u.stock }
func (u *postgresUnit) Orders() orderRepo.OrderRepository       { return u.orders }

func (u *postgresUnit) Commit() error {
	if err := u.tx.Commit(); err != nil {
		logger.Error("PostgresStore: commit failed", err)
		return database.Classify(err)
	}
	return nil
}

func (u *postgresUnit) Rollback() error {
	err := u.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}
