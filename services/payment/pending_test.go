package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services/payment"
)

func TestOpenThenResolveDeliversOutcome(t *testing.T) {
	reg := payment.NewPendingRegistry()
	ch := reg.Open("cs-1")

	reg.Resolve("cs-1", models.PaymentOutcome{Succeeded: true, PaymentID: "pay_1"})

	select {
	case outcome := <-ch:
		assert.True(t, outcome.Succeeded)
		assert.Equal(t, "pay_1", outcome.PaymentID)
	case <-time.After(time.Second):
		t.Fatal("outcome not delivered")
	}
}

func TestOpenIsIdempotentPerSession(t *testing.T) {
	reg := payment.NewPendingRegistry()

	first := reg.Open("cs-1")
	second := reg.Open("cs-1")

	reg.Resolve("cs-1", models.PaymentOutcome{Succeeded: false, Reason: "declined"})

	// Both handles observe the same single channel.
	assert.Equal(t, first, second)
	outcome := <-first
	assert.Equal(t, "declined", outcome.Reason)
}

func TestResolveWithoutOpenIsNoop(t *testing.T) {
	reg := payment.NewPendingRegistry()

	reg.Resolve("unknown", models.PaymentOutcome{Succeeded: true})
}

func TestResolveConsumesPendingEntry(t *testing.T) {
	reg := payment.NewPendingRegistry()
	reg.Open("cs-1")
	reg.Resolve("cs-1", models.PaymentOutcome{Succeeded: true})

	_, err := reg.Await(context.Background(), "cs-1")

	assert.ErrorIs(t, err, payment.ErrNoPendingPayment)
}

func TestAwaitBlocksUntilResolved(t *testing.T) {
	reg := payment.NewPendingRegistry()
	reg.Open("cs-1")

	go func() {
		time.Sleep(20 * time.Millisecond)
		reg.Resolve("cs-1", models.PaymentOutcome{Succeeded: true})
	}()

	outcome, err := reg.Await(context.Background(), "cs-1")

	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded)
}

func TestAwaitHonorsContext(t *testing.T) {
	reg := payment.NewPendingRegistry()
	reg.Open("cs-1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := reg.Await(ctx, "cs-1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
