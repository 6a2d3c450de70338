package models

import (
	"fmt"
	"time"
)

// CartItem is a single cart line. StockSnapshot is the stock level observed
// when the item was last displayed; quantity may never exceed it.
type CartItem struct {
	ProductID     string  `json:"product_id"`
	VariantID     string  `json:"variant_id,omitempty"`
	Name          string  `json:"name,omitempty"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      int     `json:"quantity"`
	StockSnapshot int     `json:"stock_snapshot"`
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal is the sum of unit price times quantity over all lines.
func (c *Cart) Subtotal() float64 {
	var subtotal float64
	for _, item := range c.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	return subtotal
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Validate checks the per-line quantity invariants.
func (c *Cart) Validate() error {
	for _, item := range c.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("quantity for product %s must be at least 1", item.ProductID)
		}
		if item.StockSnapshot > 0 && item.Quantity > item.StockSnapshot {
			return fmt.Errorf("quantity for product %s exceeds available stock", item.ProductID)
		}
	}
	return nil
}

// UpdateCartItemRequest is the payload for adding or updating a cart line.
type UpdateCartItemRequest struct {
	ProductID     string  `json:"product_id" binding:"required"`
	VariantID     string  `json:"variant_id"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price" binding:"required,gt=0"`
	Quantity      int     `json:"quantity" binding:"required,min=1"`
	StockSnapshot int     `json:"stock_snapshot" binding:"gte=0"`
}

// CartSyncRequest mirrors the local cart to the commerce backend before an
// order is submitted.
type CartSyncRequest struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}
