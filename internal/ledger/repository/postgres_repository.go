package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lkh0118/order-inventory/internal/ledger/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/database"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

var ErrStockAccountNotFound = errors.New("stock account not found")

type postgresStockRepository struct {
	db database.DBTX
	// lockRows appends FOR UPDATE to account reads; write units only.
	lockRows bool
}

func NewPostgresStockRepository(db database.DBTX) StockRepository {
	return &postgresStockRepository{db: db}
}

// NewLockingStockRepository locks every account it reads until the
// surrounding transaction ends.
func NewLockingStockRepository(db database.DBTX) StockRepository {
	return &postgresStockRepository{db: db, lockRows: true}
}

func (r *postgresStockRepository) lockClause() string {
	if r.lockRows {
		return " FOR UPDATE"
	}
	return ""
}

func (r *postgresStockRepository) CreateAccount(ctx context.Context, productID int64) error {
	query := `INSERT INTO stock_accounts (product_id, quantity, version) VALUES ($1, 0, 0)`
	if _, err := r.db.ExecContext(ctx, query, productID); err != nil {
		logger.Error("Stock.CreateAccount: insert failed", err, "product_id", productID)
		return database.Classify(err)
	}
	return nil
}

func (r *postgresStockRepository) GetAccount(ctx context.Context, productID int64) (*domain.StockAccount, error) {
	query := `SELECT product_id, quantity, version, updated_at FROM stock_accounts WHERE product_id = $1` + r.lockClause()
	var a domain.StockAccount
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&a.ProductID, &a.Quantity, &a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrStockAccountNotFound, productID)
		}
		logger.Error("Stock.GetAccount: query failed", err, "product_id", productID)
		return nil, database.Classify(err)
	}
	return &a, nil
}

func (r *postgresStockRepository) GetAccounts(ctx context.Context, productIDs []int64) (map[int64]domain.StockAccount, error) {
	query := `SELECT product_id, quantity, version, updated_at FROM stock_accounts
              WHERE product_id = ANY($1) ORDER BY product_id` + r.lockClause()
	rows, err := r.db.QueryContext(ctx, query, pq.Array(productIDs))
	if err != nil {
		logger.Error("Stock.GetAccounts: query failed", err)
		return nil, database.Classify(err)
	}
	defer rows.Close()

	accounts := make(map[int64]domain.StockAccount, len(productIDs))
	for rows.Next() {
		var a domain.StockAccount
		if err := rows.Scan(&a.ProductID, &a.Quantity, &a.Version, &a.UpdatedAt); err != nil {
			logger.Error("Stock.GetAccounts: scan failed", err)
			return nil, err
		}
		accounts[a.ProductID] = a
	}
	return accounts, database.Classify(rows.Err())
}

// UpdateQuantity relies on READ COMMITTED re-evaluating the WHERE clause after
// a competing writer commits: the version no longer matches and zero rows are
// affected.
func (r *postgresStockRepository) UpdateQuantity(ctx context.Context, productID, expectedVersion, quantity int64) error {
	query := `UPDATE stock_accounts SET quantity = $1, version = version + 1, updated_at = NOW()
              WHERE product_id = $2 AND version = $3`
	res, err := r.db.ExecContext(ctx, query, quantity, productID, expectedVersion)
	if err != nil {
		logger.Error("Stock.UpdateQuantity: exec failed", err, "product_id", productID)
		return database.Classify(err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: stock account %d changed since version %d", apperr.ErrConflict, productID, expectedVersion)
	}
	return nil
}

func (r *postgresStockRepository) InsertMovement(ctx context.Context, m *domain.StockMovement) error {
	query := `INSERT INTO stock_movements (product_id, delta, reason) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, m.ProductID, m.Delta, m.Reason).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		logger.Error("Stock.InsertMovement: insert failed", err, "product_id", m.ProductID)
		return database.Classify(err)
	}
	return nil
}

func (r *postgresStockRepository) ListMovements(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	query := `SELECT id, product_id, delta, reason, created_at FROM stock_movements
              WHERE product_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		logger.Error("Stock.ListMovements: query failed", err, "product_id", productID)
		return nil, database.Classify(err)
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Reason, &m.CreatedAt); err != nil {
			logger.Error("Stock.ListMovements: scan failed", err)
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, database.Classify(rows.Err())
}

func (r *postgresStockRepository) SumMovements(ctx context.Context) ([]domain.MovementTotal, error) {
	query := `SELECT product_id, COALESCE(SUM(delta), 0) FROM stock_movements GROUP BY product_id ORDER BY product_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Stock.SumMovements: query failed", err)
		return nil, database.Classify(err)
	}
	defer rows.Close()

	totals := []domain.MovementTotal{}
	for rows.Next() {
		var t domain.MovementTotal
		if err := rows.Scan(&t.ProductID, &t.Sum); err != nil {
			logger.Error("Stock.SumMovements: scan failed", err)
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, database.Classify(rows.Err())
}
