package payment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// ErrNoPendingPayment is returned when awaiting a session with no open
// payment attempt.
var ErrNoPendingPayment = errors.New("no pending payment for session")

// StripeGateway opens payment sessions against Stripe. The session and order
// identifiers ride along as metadata so the webhook can route outcomes back.
type StripeGateway struct {
	webhookKey string
	logger     *zap.Logger
}

func NewStripeGateway(secretKey, webhookKey string, logger *zap.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookKey: webhookKey, logger: logger}
}

// CreateSession opens a PaymentIntent for the order's authoritative total.
func (g *StripeGateway) CreateSession(ctx context.Context, sessionID string, order *models.Order, customerContact string) (*models.PaymentSession, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(order.Breakdown.Total * 100))),
		Currency: stripe.String("inr"),
	}
	params.Context = ctx
	params.AddMetadata("session_id", sessionID)
	params.AddMetadata("order_id", order.ID)
	params.AddMetadata("order_number", order.OrderNumber)
	if customerContact != "" {
		params.AddMetadata("customer_contact", customerContact)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Payment session created",
		zap.String("order_id", order.ID),
		zap.String("provider_reference", pi.ID),
	)

	return &models.PaymentSession{
		OrderID:     order.ID,
		Amount:      order.Breakdown.Total,
		ProviderRef: pi.ID,
		State:       models.PaymentSessionPending,
	}, nil
}

// ParseWebhook verifies the Stripe signature and returns the event.
func (g *StripeGateway) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, g.webhookKey)
}
