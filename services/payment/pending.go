package payment

import (
	"context"
	"sync"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// PendingRegistry tracks the one in-flight payment attempt per checkout
// session as an explicit two-outcome future. The gateway callbacks (or the
// Stripe webhook) resolve it; the orchestrator can await it, so the
// awaiting-payment transition is a plain state change instead of a tangle of
// callbacks.
type PendingRegistry struct {
	mu      sync.Mutex
	pending map[string]chan models.PaymentOutcome
}

func NewPendingRegistry() *PendingRegistry {
	return &PendingRegistry{pending: make(map[string]chan models.PaymentOutcome)}
}

// Open registers a pending payment for the session and returns its outcome
// channel. If one is already open it is reused: at most one active payment
// attempt exists per session.
func (r *PendingRegistry) Open(sessionID string) <-chan models.PaymentOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.pending[sessionID]; ok {
		return ch
	}
	ch := make(chan models.PaymentOutcome, 1)
	r.pending[sessionID] = ch
	return ch
}

// Resolve delivers the outcome and closes out the pending entry. Resolving a
// session with no open payment is a no-op.
func (r *PendingRegistry) Resolve(sessionID string, outcome models.PaymentOutcome) {
	r.mu.Lock()
	ch, ok := r.pending[sessionID]
	if ok {
		delete(r.pending, sessionID)
	}
	r.mu.Unlock()
	if ok {
		ch <- outcome
	}
}

// Await blocks until the session's payment resolves or the context ends.
func (r *PendingRegistry) Await(ctx context.Context, sessionID string) (models.PaymentOutcome, error) {
	r.mu.Lock()
	ch, ok := r.pending[sessionID]
	r.mu.Unlock()
	if !ok {
		return models.PaymentOutcome{}, ErrNoPendingPayment
	}
	select {
	case outcome := <-ch:
		return outcome, nil
	case <-ctx.Done():
		return models.PaymentOutcome{}, ctx.Err()
	}
}
