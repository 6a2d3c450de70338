package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/clients"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// CouponSource resolves a coupon code to its record. The coupon store is
// owned by the commerce backend.
type CouponSource interface {
	FetchCoupon(ctx context.Context, code string) (*models.Coupon, error)
}

// CouponService validates a coupon against a subtotal and computes the
// discount it grants.
type CouponService interface {
	Validate(ctx context.Context, code string, subtotal float64) (*models.CouponResult, *ServiceError)
}

type couponServiceImpl struct {
	source CouponSource
	logger *zap.Logger
}

func NewCouponService(source CouponSource, logger *zap.Logger) CouponService {
	return &couponServiceImpl{source: source, logger: logger}
}

// Validate applies the eligibility rules in order and computes the discount.
// Business rejections come back as an invalid result with a specific reason;
// a ServiceError is returned only when the coupon store itself is unreachable.
func (s *couponServiceImpl) Validate(ctx context.Context, code string, subtotal float64) (*models.CouponResult, *ServiceError) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return &models.CouponResult{Valid: false, Code: code, Message: "Coupon code is required"}, nil
	}

	coupon, err := s.source.FetchCoupon(ctx, code)
	if err != nil {
		var upstream *clients.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == 404 {
			return &models.CouponResult{Valid: false, Code: code, Message: "Invalid coupon code"}, nil
		}
		s.logger.Error("Coupon lookup failed", zap.String("code", code), zap.Error(err))
		return nil, &ServiceError{StatusCode: 502, Message: "Could not verify coupon, please try again"}
	}

	now := time.Now()
	switch {
	case coupon == nil, !coupon.Active:
		return &models.CouponResult{Valid: false, Code: code, Message: "Invalid coupon code"}, nil
	case now.Before(coupon.ValidFrom):
		return &models.CouponResult{Valid: false, Code: code, Message: "Coupon is not active yet"}, nil
	case now.After(coupon.ValidUntil):
		return &models.CouponResult{Valid: false, Code: code, Message: "Coupon has expired"}, nil
	case subtotal < coupon.MinSubtotal:
		return &models.CouponResult{
			Valid:   false,
			Code:    code,
			Message: fmt.Sprintf("Minimum order value of ₹%.2f required", coupon.MinSubtotal),
		}, nil
	case coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit:
		return &models.CouponResult{Valid: false, Code: code, Message: "Coupon usage limit reached"}, nil
	}

	discount := computeDiscount(coupon, subtotal)

	s.logger.Info("Coupon applied",
		zap.String("code", code),
		zap.Float64("subtotal", subtotal),
		zap.Float64("discount", discount),
	)

	return &models.CouponResult{
		Valid:          true,
		Code:           code,
		DiscountAmount: discount,
		Message:        "Coupon applied successfully",
	}, nil
}

// computeDiscount applies the type-specific rule. The discount never exceeds
// the subtotal, and a percentage coupon respects its max_discount cap.
func computeDiscount(coupon *models.Coupon, subtotal float64) float64 {
	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = subtotal * coupon.Value / 100
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
	case models.CouponTypeFixed:
		discount = coupon.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return RoundMoney(discount)
}

// NormalizeCouponCode uppercases and trims a code; lookup and storage both
// use the normalized form.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// apiCouponSource reads coupons from the commerce backend through the
// resilient client.
type apiCouponSource struct {
	backend Backend
}

func NewAPICouponSource(backend Backend) CouponSource {
	return &apiCouponSource{backend: backend}
}

func (s *apiCouponSource) FetchCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.backend.Get(ctx, "/coupons/"+url.PathEscape(code), &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}
