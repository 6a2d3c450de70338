package models

// Destination is the zone-lookup key for a shipping calculation.
type Destination struct {
	Pincode string `json:"pincode"`
	State   string `json:"state"`
}

// ShippingZone is a destination-keyed rate rule owned by the upstream
// zone table. Exactly one zone (or none) matches a destination; pincode
// matches take precedence over state matches.
type ShippingZone struct {
	MatchedBy             string  `json:"matched_by"` // "pincode" or "state"
	BaseCharge            float64 `json:"base_charge"`
	ChargePerKg           float64 `json:"charge_per_kg"`
	FreeShippingThreshold float64 `json:"free_shipping_threshold"`
	EstimatedDaysMin      int     `json:"estimated_days_min"`
	EstimatedDaysMax      int     `json:"estimated_days_max"`
}

// ShippingQuoteRequest is sent to the upstream POST /shipping/calculate.
type ShippingQuoteRequest struct {
	Pincode     string  `json:"pincode"`
	State       string  `json:"state"`
	Subtotal    float64 `json:"subtotal"`
	WeightKg    float64 `json:"weight_kg"`
	PaymentMode string  `json:"payment_mode"`
	CODAmount   float64 `json:"cod_amount,omitempty"`
}

// ShippingQuoteResponse is the upstream's answer. The cost already
// incorporates the matched zone's free-shipping threshold.
type ShippingQuoteResponse struct {
	ShippingCost     float64 `json:"shipping_cost"`
	MatchedBy        string  `json:"matched_by,omitempty"`
	EstimatedDaysMin int     `json:"estimated_days_min,omitempty"`
	EstimatedDaysMax int     `json:"estimated_days_max,omitempty"`
}

// Shipping cost sources. Callers see the same cost either way; the source is
// for logging only and is never exposed in the price shown to the user.
const (
	ShippingSourceZone     = "zone"
	ShippingSourceFallback = "fallback"
)

// ShippingCost is a resolved shipping charge for a destination and subtotal.
type ShippingCost struct {
	Amount           float64 `json:"amount"`
	Source           string  `json:"-"`
	EstimatedDaysMin int     `json:"estimated_days_min,omitempty"`
	EstimatedDaysMax int     `json:"estimated_days_max,omitempty"`
}
