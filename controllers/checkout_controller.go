package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/middleware"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
)

// How long a payment-result poll holds the request open before answering
// with the still-pending status. Kept well under the request timeout.
const paymentResultWait = 25 * time.Second

// CheckoutController handles the checkout session lifecycle.
type CheckoutController struct {
	checkoutService services.CheckoutService
}

func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// CreateSession handles POST /checkout/sessions.
func (cc *CheckoutController) CreateSession(ctx *gin.Context) {
	userID := middleware.UserID(ctx)

	session, svcErr := cc.checkoutService.CreateSession(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"session": session})
}

// GetSession handles GET /checkout/sessions/:id.
func (cc *CheckoutController) GetSession(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	session, svcErr := cc.checkoutService.GetSession(ctx.Request.Context(), userID, sessionID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// ListAddresses handles GET /checkout/addresses.
func (cc *CheckoutController) ListAddresses(ctx *gin.Context) {
	addresses, svcErr := cc.checkoutService.ListAddresses(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// SelectAddress handles PUT /checkout/sessions/:id/address.
func (cc *CheckoutController) SelectAddress(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	var req models.SelectAddressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := cc.checkoutService.SelectAddress(ctx.Request.Context(), userID, sessionID, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// ApplyCoupon handles POST /checkout/sessions/:id/coupon. An invalid coupon
// is a 200 with valid=false; the session keeps whatever was applied before.
func (cc *CheckoutController) ApplyCoupon(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	var req models.ApplyCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, result, svcErr := cc.checkoutService.ApplyCoupon(ctx.Request.Context(), userID, sessionID, req.Code)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session, "coupon": result})
}

// RemoveCoupon handles DELETE /checkout/sessions/:id/coupon.
func (cc *CheckoutController) RemoveCoupon(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	session, svcErr := cc.checkoutService.RemoveCoupon(ctx.Request.Context(), userID, sessionID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// Submit handles POST /checkout/sessions/:id/submit.
func (cc *CheckoutController) Submit(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	var req models.SubmitOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := cc.checkoutService.Submit(ctx.Request.Context(), userID, sessionID, req.PaymentMethod)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// PaymentResult handles GET /checkout/sessions/:id/payment/result. It
// long-polls the in-flight payment: the response carries the outcome once
// the gateway resolves it, or the awaiting status when the wait window
// lapses first.
func (cc *CheckoutController) PaymentResult(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	waitCtx, cancel := context.WithTimeout(ctx.Request.Context(), paymentResultWait)
	defer cancel()

	outcome, svcErr := cc.checkoutService.AwaitPayment(waitCtx, userID, sessionID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	if outcome == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": models.CheckoutAwaitingPayment})
		return
	}

	status := models.CheckoutCompleted
	if !outcome.Succeeded {
		status = models.CheckoutFailed
	}
	ctx.JSON(http.StatusOK, gin.H{"status": status, "outcome": outcome})
}

// Abandon handles DELETE /checkout/sessions/:id.
func (cc *CheckoutController) Abandon(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	sessionID := ctx.Param("id")

	if svcErr := cc.checkoutService.Abandon(ctx.Request.Context(), userID, sessionID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Checkout abandoned"})
}
