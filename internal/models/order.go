package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the state of a sales order. PENDING is only ever visible
// inside the transaction that processes the order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Order is a sales order header.
type Order struct {
	ID          string
	POSOrderRef string
	Status      OrderStatus
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	CompletedAt *time.Time

	Items []OrderItem
}

// OrderItem is one sold line with the price captured at sale time.
type OrderItem struct {
	ID          string
	OrderID     string
	ItemID      string
	Quantity    float64
	PriceAtSale decimal.Decimal

	// Joined fields
	ItemName string
}

// LineTotal returns price_at_sale * quantity.
func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.PriceAtSale.Mul(decimal.NewFromFloat(oi.Quantity))
}

// OrderLine is a requested sale of qty units of an item.
type OrderLine struct {
	ItemID string  `validate:"required"`
	Qty    float64 `validate:"gt=0"`
}

// OrderList is a paginated list of order headers.
type OrderList struct {
	Orders     []*Order
	Total      int
	Page       int
	TotalPages int
}
