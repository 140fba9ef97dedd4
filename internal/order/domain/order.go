package domain

import (
	"time"
)

type OrderStatus string

// Only StatusCreated is produced today; the others are reserved for payment
// and cancellation flows.
const (
	StatusCreated   OrderStatus = "created"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID         int64       `json:"id"`
	Status     OrderStatus `json:"status"`
	TotalPrice int64       `json:"total_price"`
	Items      []OrderItem `json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderItem snapshots the unit price at order time.
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"-"`
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Qty       int64  `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

type CreateOrderItemRequest struct {
	SKU string `json:"sku" binding:"required"`
	Qty int64  `json:"qty" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}
