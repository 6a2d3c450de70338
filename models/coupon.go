package models

import "time"

// CouponType represents the type of discount a coupon provides.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon is the promotional coupon record owned by the upstream coupon store.
type Coupon struct {
	Code        string     `json:"code"`
	Type        CouponType `json:"discount_type"`
	Value       float64    `json:"value"`
	MinSubtotal float64    `json:"min_subtotal"`
	MaxDiscount *float64   `json:"max_discount,omitempty"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidUntil  time.Time  `json:"valid_until"`
	UsageLimit  int        `json:"usage_limit"` // 0 = unlimited
	UsageCount  int        `json:"usage_count"`
	Active      bool       `json:"is_active"`
}

// ApplyCouponRequest is the payload for applying a coupon to a session.
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// CouponResult is the outcome of validating a coupon against a subtotal.
type CouponResult struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	Message        string  `json:"message"`
}

// AppliedCoupon is the coupon state carried on a checkout session. The last
// successful application wins.
type AppliedCoupon struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}
