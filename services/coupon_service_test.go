package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/clients"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
)

// --- Mock coupon source ---

type mockCouponSource struct {
	coupons map[string]*models.Coupon
	err     error
}

func (m *mockCouponSource) FetchCoupon(_ context.Context, code string) (*models.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok {
		return nil, &clients.UpstreamError{StatusCode: 404, Body: "coupon not found"}
	}
	return c, nil
}

func newCouponService(coupons ...*models.Coupon) services.CouponService {
	source := &mockCouponSource{coupons: make(map[string]*models.Coupon)}
	for _, c := range coupons {
		source.coupons[c.Code] = c
	}
	logger, _ := zap.NewDevelopment()
	return services.NewCouponService(source, logger)
}

func percentCoupon(code string, value float64, maxDiscount *float64, minSubtotal float64) *models.Coupon {
	return &models.Coupon{
		Code:        code,
		Type:        models.CouponTypePercentage,
		Value:       value,
		MaxDiscount: maxDiscount,
		MinSubtotal: minSubtotal,
		ValidFrom:   time.Now().Add(-24 * time.Hour),
		ValidUntil:  time.Now().Add(24 * time.Hour),
		Active:      true,
	}
}

func fixedCoupon(code string, value, minSubtotal float64) *models.Coupon {
	return &models.Coupon{
		Code:        code,
		Type:        models.CouponTypeFixed,
		Value:       value,
		MinSubtotal: minSubtotal,
		ValidFrom:   time.Now().Add(-24 * time.Hour),
		ValidUntil:  time.Now().Add(24 * time.Hour),
		Active:      true,
	}
}

func ptr(v float64) *float64 { return &v }

// --- Tests ---

func TestValidatePercentageCoupon(t *testing.T) {
	svc := newCouponService(percentCoupon("SAVE10", 10, nil, 0))

	result, svcErr := svc.Validate(context.Background(), "SAVE10", 2000)

	assert.Nil(t, svcErr)
	assert.True(t, result.Valid)
	assert.Equal(t, 200.0, result.DiscountAmount)
}

func TestValidatePercentageCouponCapped(t *testing.T) {
	svc := newCouponService(percentCoupon("SAVE10", 10, ptr(100), 0))

	result, svcErr := svc.Validate(context.Background(), "SAVE10", 2000)

	assert.Nil(t, svcErr)
	assert.True(t, result.Valid)
	assert.Equal(t, 100.0, result.DiscountAmount)
}

func TestValidateFixedCouponClampedToSubtotal(t *testing.T) {
	svc := newCouponService(fixedCoupon("FLAT500", 500, 0))

	result, svcErr := svc.Validate(context.Background(), "FLAT500", 300)

	assert.Nil(t, svcErr)
	assert.True(t, result.Valid)
	assert.Equal(t, 300.0, result.DiscountAmount)
}

func TestValidateCouponCodeNormalized(t *testing.T) {
	svc := newCouponService(fixedCoupon("FLAT100", 100, 0))

	result, svcErr := svc.Validate(context.Background(), "  flat100 ", 1000)

	assert.Nil(t, svcErr)
	assert.True(t, result.Valid)
	assert.Equal(t, "FLAT100", result.Code)
}

func TestValidateUnknownCoupon(t *testing.T) {
	svc := newCouponService()

	result, svcErr := svc.Validate(context.Background(), "NOPE", 1000)

	assert.Nil(t, svcErr)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid coupon code", result.Message)
}

func TestValidateInactiveCoupon(t *testing.T) {
	coupon := fixedCoupon("OLD", 100, 0)
	coupon.Active = false
	svc := newCouponService(coupon)

	result, svcErr := svc.Validate(context.Background(), "OLD", 1000)

	assert.Nil(t, svcErr)
	assert.False(t, result.Valid)
}

func TestValidateExpiredCoupon(t *testing.T) {
	coupon := fixedCoupon("EXPIRED", 100, 0)
	coupon.ValidUntil = time.Now().Add(-time.Hour)
	svc := newCouponService(coupon)

	result, svcErr := svc.Validate(context.Background(), "EXPIRED", 1000)

	assert.Nil(t, svcErr)
	assert.False(t, result.Valid)
	assert.Equal(t, "Coupon has expired", result.Message)
}

func TestValidateCouponNotYetActive(t *testing.T) {
	coupon := fixedCoupon("SOON", 100, 0)
	coupon.ValidFrom = time.Now().Add(time.Hour)
	svc := newCouponService(coupon)

	result, svcErr := svc.Validate(context.Background(), "SOON", 1000)

	assert.Nil(t, svcErr)
	assert.False(t, result.Valid)
	assert.Equal(t, "Coupon is not active yet", result.Message)
}

func TestValidateBelowMinSubtotal(t *testing.T) {
	svc := newCouponService(fixedCoupon("BIG", 200, 1500))

	result, svcErr := svc.Validate(context.Background(), "BIG", 1000)

	assert.Nil(t, svcErr)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "Minimum order value")
}

func TestValidateUsageLimitReached(t *testing.T) {
	coupon := fixedCoupon("LIMITED", 100, 0)
	coupon.UsageLimit = 5
	coupon.UsageCount = 5
	svc := newCouponService(coupon)

	result, svcErr := svc.Validate(context.Background(), "LIMITED", 1000)

	assert.Nil(t, svcErr)
	assert.False(t, result.Valid)
	assert.Equal(t, "Coupon usage limit reached", result.Message)
}

func TestValidateCouponStoreUnavailable(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	source := &mockCouponSource{err: &clients.UpstreamError{StatusCode: 503, Body: "unavailable"}}
	svc := services.NewCouponService(source, logger)

	result, svcErr := svc.Validate(context.Background(), "ANY", 1000)

	assert.Nil(t, result)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 502, svcErr.StatusCode)
}
