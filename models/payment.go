package models

// PaymentSession states.
const (
	PaymentSessionPending   = "pending"
	PaymentSessionSucceeded = "succeeded"
	PaymentSessionFailed    = "failed"
)

// PaymentSession ties an order to an attempt at the external gateway.
// At most one session may be active per order at a time.
type PaymentSession struct {
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	ProviderRef string  `json:"provider_reference"`
	State       string  `json:"state"`
}

// PaymentOutcome is the gateway's asynchronous answer for a session.
type PaymentOutcome struct {
	Succeeded bool   `json:"succeeded"`
	PaymentID string `json:"payment_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// PaymentConfirmRequest is posted by the gateway success callback.
type PaymentConfirmRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

// PaymentFailureRequest is posted by the gateway failure callback.
type PaymentFailureRequest struct {
	Reason string `json:"reason" binding:"required"`
}
