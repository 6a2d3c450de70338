package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/controllers"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock CheckoutService ---

type mockCheckoutService struct {
	createFn  func(ctx context.Context, userID string) (*models.CheckoutSession, *services.ServiceError)
	getFn     func(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *services.ServiceError)
	selectFn  func(ctx context.Context, userID, sessionID string, req *models.SelectAddressRequest) (*models.CheckoutSession, *services.ServiceError)
	couponFn  func(ctx context.Context, userID, sessionID, code string) (*models.CheckoutSession, *models.CouponResult, *services.ServiceError)
	submitFn  func(ctx context.Context, userID, sessionID, paymentMethod string) (*models.CheckoutSession, *services.ServiceError)
	awaitFn   func(ctx context.Context, userID, sessionID string) (*models.PaymentOutcome, *services.ServiceError)
	abandonFn func(ctx context.Context, userID, sessionID string) *services.ServiceError
}

func (m *mockCheckoutService) CreateSession(ctx context.Context, userID string) (*models.CheckoutSession, *services.ServiceError) {
	return m.createFn(ctx, userID)
}

func (m *mockCheckoutService) GetSession(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *services.ServiceError) {
	return m.getFn(ctx, userID, sessionID)
}

func (m *mockCheckoutService) ListAddresses(ctx context.Context) ([]models.Address, *services.ServiceError) {
	return []models.Address{}, nil
}

func (m *mockCheckoutService) SelectAddress(ctx context.Context, userID, sessionID string, req *models.SelectAddressRequest) (*models.CheckoutSession, *services.ServiceError) {
	return m.selectFn(ctx, userID, sessionID, req)
}

func (m *mockCheckoutService) ApplyCoupon(ctx context.Context, userID, sessionID, code string) (*models.CheckoutSession, *models.CouponResult, *services.ServiceError) {
	return m.couponFn(ctx, userID, sessionID, code)
}

func (m *mockCheckoutService) RemoveCoupon(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *services.ServiceError) {
	return m.getFn(ctx, userID, sessionID)
}

func (m *mockCheckoutService) Submit(ctx context.Context, userID, sessionID, paymentMethod string) (*models.CheckoutSession, *services.ServiceError) {
	return m.submitFn(ctx, userID, sessionID, paymentMethod)
}

func (m *mockCheckoutService) NotifyCartChanged(ctx context.Context, userID string) *services.ServiceError {
	return nil
}

func (m *mockCheckoutService) AwaitPayment(ctx context.Context, userID, sessionID string) (*models.PaymentOutcome, *services.ServiceError) {
	if m.awaitFn == nil {
		return nil, nil
	}
	return m.awaitFn(ctx, userID, sessionID)
}

func (m *mockCheckoutService) HandlePaymentSuccess(ctx context.Context, sessionID, paymentID string) (*models.CheckoutSession, *services.ServiceError) {
	return nil, &services.ServiceError{StatusCode: 500, Message: "not implemented"}
}

func (m *mockCheckoutService) HandlePaymentFailure(ctx context.Context, sessionID, reason string) (*models.CheckoutSession, *services.ServiceError) {
	return nil, &services.ServiceError{StatusCode: 500, Message: "not implemented"}
}

func (m *mockCheckoutService) Abandon(ctx context.Context, userID, sessionID string) *services.ServiceError {
	return m.abandonFn(ctx, userID, sessionID)
}

// --- Helpers ---

func setupRouter(svc services.CheckoutService) *gin.Engine {
	r := gin.New()
	cc := controllers.NewCheckoutController(svc)

	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-test-id")
		c.Next()
	})

	r.POST("/checkout/sessions", cc.CreateSession)
	r.GET("/checkout/sessions/:id", cc.GetSession)
	r.PUT("/checkout/sessions/:id/address", cc.SelectAddress)
	r.POST("/checkout/sessions/:id/coupon", cc.ApplyCoupon)
	r.POST("/checkout/sessions/:id/submit", cc.Submit)
	r.GET("/checkout/sessions/:id/payment/result", cc.PaymentResult)
	r.DELETE("/checkout/sessions/:id", cc.Abandon)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestCreateSessionReturns201(t *testing.T) {
	svc := &mockCheckoutService{
		createFn: func(_ context.Context, userID string) (*models.CheckoutSession, *services.ServiceError) {
			assert.Equal(t, "user-test-id", userID)
			return &models.CheckoutSession{ID: "cs-1", UserID: userID, Status: models.CheckoutSelectingAddress}, nil
		},
	}

	w := doJSON(setupRouter(svc), http.MethodPost, "/checkout/sessions", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Session models.CheckoutSession `json:"session"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cs-1", resp.Session.ID)
}

func TestCreateSessionEmptyCartReturns400(t *testing.T) {
	svc := &mockCheckoutService{
		createFn: func(_ context.Context, _ string) (*models.CheckoutSession, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 400, Message: "Cart is empty"}
		},
	}

	w := doJSON(setupRouter(svc), http.MethodPost, "/checkout/sessions", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cart is empty")
}

func TestSelectAddressBindsPayload(t *testing.T) {
	var received *models.SelectAddressRequest
	svc := &mockCheckoutService{
		selectFn: func(_ context.Context, _, sessionID string, req *models.SelectAddressRequest) (*models.CheckoutSession, *services.ServiceError) {
			received = req
			return &models.CheckoutSession{ID: sessionID, Status: models.CheckoutCalculatingShipping}, nil
		},
	}

	w := doJSON(setupRouter(svc), http.MethodPut, "/checkout/sessions/cs-1/address",
		models.SelectAddressRequest{AddressID: "addr-7"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, received)
	assert.Equal(t, "addr-7", received.AddressID)
}

func TestApplyCouponInvalidIsStill200(t *testing.T) {
	svc := &mockCheckoutService{
		couponFn: func(_ context.Context, _, sessionID, code string) (*models.CheckoutSession, *models.CouponResult, *services.ServiceError) {
			return &models.CheckoutSession{ID: sessionID},
				&models.CouponResult{Valid: false, Code: code, Message: "Coupon has expired"}, nil
		},
	}

	w := doJSON(setupRouter(svc), http.MethodPost, "/checkout/sessions/cs-1/coupon",
		models.ApplyCouponRequest{Code: "EXPIRED"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Coupon has expired")
}

func TestApplyCouponMissingCodeReturns400(t *testing.T) {
	svc := &mockCheckoutService{}

	w := doJSON(setupRouter(svc), http.MethodPost, "/checkout/sessions/cs-1/coupon", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &mockCheckoutService{}

	w := doJSON(setupRouter(svc), http.MethodPost, "/checkout/sessions/cs-1/submit",
		map[string]string{"payment_method": "barter"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitConflictPassesThrough(t *testing.T) {
	svc := &mockCheckoutService{
		submitFn: func(_ context.Context, _, _, _ string) (*models.CheckoutSession, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 409, Message: "Order submission already in progress"}
		},
	}

	w := doJSON(setupRouter(svc), http.MethodPost, "/checkout/sessions/cs-1/submit",
		models.SubmitOrderRequest{PaymentMethod: "card"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentResultDeliversOutcome(t *testing.T) {
	svc := &mockCheckoutService{
		awaitFn: func(_ context.Context, _, sessionID string) (*models.PaymentOutcome, *services.ServiceError) {
			assert.Equal(t, "cs-1", sessionID)
			return &models.PaymentOutcome{Succeeded: true, PaymentID: "pi_123"}, nil
		},
	}

	w := doJSON(setupRouter(svc), http.MethodGet, "/checkout/sessions/cs-1/payment/result", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.CheckoutCompleted)
	assert.Contains(t, w.Body.String(), "pi_123")
}

func TestPaymentResultStillPending(t *testing.T) {
	svc := &mockCheckoutService{
		awaitFn: func(_ context.Context, _, _ string) (*models.PaymentOutcome, *services.ServiceError) {
			return nil, nil
		},
	}

	w := doJSON(setupRouter(svc), http.MethodGet, "/checkout/sessions/cs-1/payment/result", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.CheckoutAwaitingPayment)
}

func TestAbandonReturns200(t *testing.T) {
	svc := &mockCheckoutService{
		abandonFn: func(_ context.Context, _, sessionID string) *services.ServiceError {
			assert.Equal(t, "cs-1", sessionID)
			return nil
		},
	}

	w := doJSON(setupRouter(svc), http.MethodDelete, "/checkout/sessions/cs-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}
