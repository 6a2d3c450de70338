package models

import "time"

// Order status values as reported by the commerce backend. The backend is
// authoritative; this service never flips a status locally.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment status values carried on an order.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// OrderItem is a snapshot of a cart line at submission time, including any
// discount present on the product itself.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Discount  float64 `json:"discount,omitempty"`
}

// Order is the authoritative order record owned by the commerce backend.
// Items and the shipping address are copies, not references.
type Order struct {
	ID              string         `json:"id"`
	OrderNumber     string         `json:"order_number"`
	UserID          string         `json:"user_id"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shipping_address"`
	Breakdown       PriceBreakdown `json:"price_breakdown"`
	CouponCode      string         `json:"coupon_code,omitempty"`
	Status          string         `json:"status"`
	PaymentMethod   string         `json:"payment_method"`
	PaymentStatus   string         `json:"payment_status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
}

// CreateOrderRequest is sent to the upstream POST /orders/.
type CreateOrderRequest struct {
	UserID          string     `json:"user_id"`
	Items           []CartItem `json:"items"`
	ShippingAddress Address    `json:"shipping_address"`
	PaymentMethod   string     `json:"payment_method"`
	CouponCode      string     `json:"coupon_code,omitempty"`
}

// Exchange request reasons accepted by policy.
const (
	ExchangeReasonDefective = "defective"
	ExchangeReasonDamaged   = "damaged"
)

// ExchangeItem identifies one order line included in an exchange request.
type ExchangeItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// ExchangeRequest is forwarded to the returns collaborator once eligibility
// is confirmed. Exchange state itself is tracked by that collaborator.
type ExchangeRequest struct {
	OrderID string         `json:"order_id"`
	UserID  string         `json:"user_id"`
	Reason  string         `json:"reason" binding:"required,oneof=defective damaged"`
	Items   []ExchangeItem `json:"items" binding:"required,min=1,dive"`
	Comment string         `json:"comment,omitempty"`
}

// Client actions that may be offered on an order in its current state.
const (
	OrderActionCancel          = "cancel"
	OrderActionRequestExchange = "request_exchange"
	OrderActionViewInvoice     = "view_invoice"
)
