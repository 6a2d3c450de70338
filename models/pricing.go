package models

// PriceBreakdown is derived from its inputs and recomputed whenever any of
// them changes; it is never persisted independently of an order.
// Invariant: Total = max(0, Subtotal + ShippingCost + PlatformFee - Discount).
type PriceBreakdown struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shipping_cost"`
	PlatformFee  float64 `json:"platform_fee"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
}
