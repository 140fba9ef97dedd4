package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lkh0118/order-inventory/internal/order/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/database"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

type postgresOrderRepository struct {
	db database.DBTX
}

func NewPostgresOrderRepository(db database.DBTX) OrderRepository {
	return &postgresOrderRepository{db: db}
}

func (r *postgresOrderRepository) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (status, total_price) VALUES ($1, $2) RETURNING id, created_at`
	if order.Status == "" {
		order.Status = domain.StatusCreated
	}
	err := r.db.QueryRowContext(ctx, query, order.Status, order.TotalPrice).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		logger.Error("Orders.InsertOrder: failed to insert order", err)
		return database.Classify(err)
	}
	return nil
}

func (r *postgresOrderRepository) InsertItem(ctx context.Context, item *domain.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, qty, unit_price, line_total)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, item.OrderID, item.ProductID, item.Qty, item.UnitPrice, item.LineTotal).
		Scan(&item.ID)
	if err != nil {
		logger.Error("Orders.InsertItem: failed to insert order item", err, "order_id", item.OrderID, "product_id", item.ProductID)
		return database.Classify(err)
	}
	return nil
}

func (r *postgresOrderRepository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, status, total_price, created_at FROM orders WHERE id = $1`
	var o domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.Status, &o.TotalPrice, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", apperr.ErrOrderNotFound, id)
		}
		logger.Error("Orders.GetOrder: query failed", err, "order_id", id)
		return nil, database.Classify(err)
	}

	itemsQuery := `SELECT oi.id, oi.order_id, oi.product_id, p.sku, oi.qty, oi.unit_price, oi.line_total
                   FROM order_items oi JOIN products p ON p.id = oi.product_id
                   WHERE oi.order_id = $1 ORDER BY oi.product_id`
	rows, err := r.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		logger.Error("Orders.GetOrder: items query failed", err, "order_id", id)
		return nil, database.Classify(err)
	}
	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var i domain.OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.SKU, &i.Qty, &i.UnitPrice, &i.LineTotal); err != nil {
			logger.Error("Orders.GetOrder: scan failed", err)
			return nil, err
		}
		o.Items = append(o.Items, i)
	}
	return &o, database.Classify(rows.Err())
}
