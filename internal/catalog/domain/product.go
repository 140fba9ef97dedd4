package domain

import (
	"time"
)

// Product is immutable once registered. Price is in the minor currency unit.
type Product struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterProductRequest struct {
	SKU   string `json:"sku" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Price int64  `json:"price" binding:"gte=0"`
}

// ProductView is a listing row: the product plus its advisory stock level.
type ProductView struct {
	Product
	Quantity int64 `json:"quantity"`
}
