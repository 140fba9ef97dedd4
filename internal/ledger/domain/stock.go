package domain

import (
	"time"
)

// StockAccount is the materialized quantity for one product. Version grows by
// one on every committed change and guards conditional writes.
type StockAccount struct {
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockMovement is one append-only signed change. The sum of a product's
// deltas equals its account quantity.
type StockMovement struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type AdjustStockRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type AdjustStockResponse struct {
	SKU        string `json:"sku"`
	Quantity   int64  `json:"quantity"`
	MovementID int64  `json:"movement_id"`
}

type StockLevel struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// MovementTotal is the replayed ledger sum for one product.
type MovementTotal struct {
	ProductID int64
	Sum       int64
}

// Drift describes a product whose quantity disagrees with its movement log.
type Drift struct {
	ProductID   int64  `json:"product_id"`
	SKU         string `json:"sku"`
	Quantity    int64  `json:"quantity"`
	MovementSum int64  `json:"movement_sum"`
	Drift       int64  `json:"drift"`
}

type ReconcileReport struct {
	CheckedAt time.Time `json:"checked_at"`
	Products  int       `json:"products"`
	Drifts    []Drift   `json:"drifts"`
}
