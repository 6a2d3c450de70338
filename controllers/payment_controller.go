package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services/payment"
)

// PaymentController receives gateway callbacks and Stripe webhooks and feeds
// them into the checkout flow.
type PaymentController struct {
	checkoutService services.CheckoutService
	stripe          *payment.StripeGateway
	logger          *zap.Logger
}

func NewPaymentController(checkoutService services.CheckoutService, stripeGateway *payment.StripeGateway, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		checkoutService: checkoutService,
		stripe:          stripeGateway,
		logger:          logger,
	}
}

// ConfirmPayment handles POST /payments/sessions/:id/confirm, the client-side
// success callback. The webhook remains the source of truth; this path just
// lets the UI complete without waiting for Stripe's delivery.
func (pc *PaymentController) ConfirmPayment(ctx *gin.Context) {
	sessionID := ctx.Param("id")

	var req models.PaymentConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := pc.checkoutService.HandlePaymentSuccess(ctx.Request.Context(), sessionID, req.PaymentID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// FailPayment handles POST /payments/sessions/:id/fail, the client-side
// failure callback.
func (pc *PaymentController) FailPayment(ctx *gin.Context) {
	sessionID := ctx.Param("id")

	var req models.PaymentFailureRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := pc.checkoutService.HandlePaymentFailure(ctx.Request.Context(), sessionID, req.Reason)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// StripeWebhook receives and dispatches Stripe webhook events.
func (pc *PaymentController) StripeWebhook(ctx *gin.Context) {
	event, err := pc.stripe.ParseWebhook(ctx.Request)
	if err != nil {
		pc.logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	pc.logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "payment_intent.succeeded":
		pc.handlePaymentIntent(ctx, event, true)
	case "payment_intent.payment_failed":
		pc.handlePaymentIntent(ctx, event, false)
	default:
		pc.logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (pc *PaymentController) handlePaymentIntent(ctx *gin.Context, event stripe.Event, succeeded bool) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		pc.logger.Error("Failed to unmarshal payment intent", zap.Error(err))
		return
	}

	sessionID := pi.Metadata["session_id"]
	if sessionID == "" {
		pc.logger.Warn("Missing session metadata in payment intent",
			zap.String("payment_intent_id", pi.ID),
			zap.Any("metadata", pi.Metadata),
		)
		return
	}

	var svcErr *services.ServiceError
	if succeeded {
		_, svcErr = pc.checkoutService.HandlePaymentSuccess(ctx.Request.Context(), sessionID, pi.ID)
	} else {
		reason := "Payment declined"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		_, svcErr = pc.checkoutService.HandlePaymentFailure(ctx.Request.Context(), sessionID, reason)
	}

	// A 409 here is the duplicate-delivery case: the callback already
	// resolved the session. Stripe gets a 200 either way.
	if svcErr != nil && svcErr.StatusCode != http.StatusConflict {
		pc.logger.Error("Failed to apply payment webhook",
			zap.String("session_id", sessionID),
			zap.Int("status", svcErr.StatusCode),
			zap.String("message", svcErr.Message),
		)
	}
}
