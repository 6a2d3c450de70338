package services

import (
	"math"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// DefaultPlatformFeeRate is the platform surcharge applied to the subtotal.
const DefaultPlatformFeeRate = 0.02

// RoundMoney rounds to 2 decimals. Every price shown or charged goes through
// this one helper, so the preview total and the submitted total cannot drift.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// PricingService computes a price breakdown from its inputs. Pure function
// of (subtotal, shipping, discount); no I/O.
type PricingService interface {
	Price(subtotal, shippingCost, discount float64) models.PriceBreakdown
}

type pricingServiceImpl struct {
	feeRate float64
}

// NewPricingService creates a PricingService with the given platform fee rate.
func NewPricingService(feeRate float64) PricingService {
	return &pricingServiceImpl{feeRate: feeRate}
}

// Price computes the breakdown. The platform fee applies to the subtotal
// only, never to shipping and never after discount. The total is clamped at
// zero so a discount exceeding the rest of the bill cannot go negative.
func (s *pricingServiceImpl) Price(subtotal, shippingCost, discount float64) models.PriceBreakdown {
	fee := RoundMoney(subtotal * s.feeRate)
	total := RoundMoney(subtotal + shippingCost + fee - discount)
	if total < 0 {
		total = 0
	}
	return models.PriceBreakdown{
		Subtotal:     RoundMoney(subtotal),
		ShippingCost: RoundMoney(shippingCost),
		PlatformFee:  fee,
		Discount:     RoundMoney(discount),
		Total:        total,
	}
}
