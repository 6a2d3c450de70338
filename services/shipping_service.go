package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// Backend is the slice of the resilient client the services depend on.
type Backend interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	PreWarm(ctx context.Context)
}

// ShippingService resolves a shipping cost for a destination and subtotal.
type ShippingService interface {
	Calculate(ctx context.Context, dest models.Destination, subtotal, weightKg float64, paymentMode string) models.ShippingCost
}

type shippingServiceImpl struct {
	backend       Backend
	flatRate      float64
	freeThreshold float64
	logger        *zap.Logger
}

// NewShippingService creates a ShippingService with the given fallback
// policy: cost 0 at or above freeThreshold, flatRate below it.
func NewShippingService(backend Backend, flatRate, freeThreshold float64, logger *zap.Logger) ShippingService {
	return &shippingServiceImpl{
		backend:       backend,
		flatRate:      flatRate,
		freeThreshold: freeThreshold,
		logger:        logger,
	}
}

// Calculate asks the upstream zone table for the charge; pincode-exact match
// first, state fallback second, both on the upstream side. Any remote
// failure, and any incomplete destination, degrades to the local flat
// fallback. The two fallback causes produce the identical cost and differ
// only in what gets logged; this is a degrade path, not an error state.
func (s *shippingServiceImpl) Calculate(ctx context.Context, dest models.Destination, subtotal, weightKg float64, paymentMode string) models.ShippingCost {
	addr := models.Address{Pincode: dest.Pincode, State: dest.State}
	if !addr.DestinationComplete() {
		s.logger.Debug("Shipping destination incomplete, using fallback",
			zap.String("pincode", dest.Pincode),
			zap.String("state", dest.State),
		)
		return s.fallback(subtotal)
	}

	req := models.ShippingQuoteRequest{
		Pincode:     dest.Pincode,
		State:       dest.State,
		Subtotal:    subtotal,
		WeightKg:    weightKg,
		PaymentMode: paymentMode,
	}
	if paymentMode == "cod" {
		// The amount the courier collects on delivery; the zone table prices
		// COD handling off it.
		req.CODAmount = RoundMoney(subtotal)
	}
	var quote models.ShippingQuoteResponse
	if err := s.backend.Post(ctx, "/shipping/calculate", req, &quote); err != nil {
		s.logger.Warn("Shipping calculation failed, using fallback",
			zap.String("pincode", dest.Pincode),
			zap.Error(err),
		)
		return s.fallback(subtotal)
	}

	return models.ShippingCost{
		Amount:           RoundMoney(quote.ShippingCost),
		Source:           models.ShippingSourceZone,
		EstimatedDaysMin: quote.EstimatedDaysMin,
		EstimatedDaysMax: quote.EstimatedDaysMax,
	}
}

// fallback is deterministic: same inputs, same cost, regardless of why the
// remote path was unavailable. Its threshold matches the primary path's
// free-shipping rule at the boundary.
func (s *shippingServiceImpl) fallback(subtotal float64) models.ShippingCost {
	amount := s.flatRate
	if subtotal >= s.freeThreshold {
		amount = 0
	}
	return models.ShippingCost{Amount: amount, Source: models.ShippingSourceFallback}
}
