package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lkh0118/order-inventory/internal/catalog/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/database"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

type postgresProductRepository struct {
	db database.DBTX
}

func NewPostgresProductRepository(db database.DBTX) ProductRepository {
	return &postgresProductRepository{db: db}
}

func (r *postgresProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (sku, name, price) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, p.SKU, p.Name, p.Price).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		err = database.Classify(err)
		if errors.Is(err, apperr.ErrDuplicateSKU) {
			return fmt.Errorf("%w: %s", apperr.ErrDuplicateSKU, p.SKU)
		}
		logger.Error("Products.Insert: failed to insert product", err, "sku", p.SKU)
		return err
	}
	return nil
}

func (r *postgresProductRepository) GetBySKUs(ctx context.Context, skus []string) ([]domain.Product, error) {
	query := `SELECT id, sku, name, price, created_at FROM products WHERE sku = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(skus))
	if err != nil {
		logger.Error("Products.GetBySKUs: query failed", err)
		return nil, database.Classify(err)
	}
	return scanProducts(rows)
}

func (r *postgresProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, sku, name, price, created_at FROM products WHERE id = $1`
	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", apperr.ErrProductNotFound, id)
		}
		logger.Error("Products.GetByID: query failed", err, "product_id", id)
		return nil, database.Classify(err)
	}
	return &p, nil
}

func (r *postgresProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, sku, name, price, created_at FROM products ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Products.List: query failed", err)
		return nil, database.Classify(err)
	}
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			logger.Error("Products: scan failed", err)
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Products: rows iteration error", err)
		return nil, database.Classify(err)
	}
	return products, nil
}
