package models

import "time"

// Checkout session states. The session advances strictly through this
// machine; Completed and Failed are terminal for the session (a Failed
// session may re-submit, which re-enters Submitting).
const (
	CheckoutSelectingAddress    = "selecting_address"
	CheckoutCalculatingShipping = "calculating_shipping"
	CheckoutReady               = "ready"
	CheckoutSubmitting          = "submitting"
	CheckoutAwaitingPayment     = "awaiting_payment"
	CheckoutCompleted           = "completed"
	CheckoutFailed              = "failed"
)

// CheckoutSession is the state of one checkout flow for one user.
// ShippingCost == nil means no calculation has completed yet; submission is
// blocked in that state.
type CheckoutSession struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Status        string          `json:"status"`
	Subtotal      float64         `json:"subtotal"`
	Address       *Address        `json:"address,omitempty"`
	ShippingCost  *float64        `json:"shipping_cost,omitempty"`
	ShippingDays  [2]int          `json:"shipping_days,omitempty"`
	Coupon        *AppliedCoupon  `json:"coupon,omitempty"`
	Breakdown     *PriceBreakdown `json:"breakdown,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty"`
	PaymentRef    string          `json:"payment_reference,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ShippingResolved reports whether a shipping calculation has completed for
// the current address and subtotal.
func (s *CheckoutSession) ShippingResolved() bool {
	return s.ShippingCost != nil
}

// Terminal reports whether the session has reached a final state.
func (s *CheckoutSession) Terminal() bool {
	return s.Status == CheckoutCompleted || s.Status == CheckoutFailed
}

// SubmitOrderRequest is the payload for placing the order.
type SubmitOrderRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card upi netbanking cod"`
}
