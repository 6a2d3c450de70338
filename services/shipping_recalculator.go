package services

import (
	"context"
	"sync"
	"time"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// ShippingRecalculator debounces shipping recomputation per checkout session
// and enforces last-writer-wins delivery: rapid edits within the quiet
// period collapse into one calculation using the final edit's values, and a
// late response for an older request never overwrites a newer result.
type ShippingRecalculator struct {
	svc   ShippingService
	quiet time.Duration

	mu    sync.Mutex
	byKey map[string]*recalcState
}

type recalcState struct {
	timer   *time.Timer
	issued  uint64 // sequence of the most recently fired calculation
	applied uint64 // sequence of the most recently delivered result
}

type recalcInput struct {
	dest        models.Destination
	subtotal    float64
	weightKg    float64
	paymentMode string
	apply       func(models.ShippingCost)
}

func NewShippingRecalculator(svc ShippingService, quiet time.Duration) *ShippingRecalculator {
	return &ShippingRecalculator{
		svc:   svc,
		quiet: quiet,
		byKey: make(map[string]*recalcState),
	}
}

// Request schedules a recalculation for the session key. Each call resets
// the session's quiet-period timer; only the final pending timer fires.
// Partial destinations still resolve (to the fallback cost) but perform no
// network call inside ShippingService.
func (r *ShippingRecalculator) Request(key string, dest models.Destination, subtotal, weightKg float64, paymentMode string, apply func(models.ShippingCost)) {
	in := recalcInput{dest: dest, subtotal: subtotal, weightKg: weightKg, paymentMode: paymentMode, apply: apply}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.byKey[key]
	if !ok {
		state = &recalcState{}
		r.byKey[key] = state
	}
	if state.timer != nil {
		state.timer.Stop()
	}
	state.timer = time.AfterFunc(r.quiet, func() {
		r.fire(key, in)
	})
}

// Cancel drops any pending timer for the session. Called on flow exit so no
// calculation fires after the session is gone.
func (r *ShippingRecalculator) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.byKey[key]; ok {
		if state.timer != nil {
			state.timer.Stop()
		}
		delete(r.byKey, key)
	}
}

func (r *ShippingRecalculator) fire(key string, in recalcInput) {
	r.mu.Lock()
	state, ok := r.byKey[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	state.issued++
	seq := state.issued
	r.mu.Unlock()

	cost := r.svc.Calculate(context.Background(), in.dest, in.subtotal, in.weightKg, in.paymentMode)

	r.mu.Lock()
	state, ok = r.byKey[key]
	if !ok || seq <= state.applied {
		// A newer calculation already delivered; this result is stale.
		r.mu.Unlock()
		return
	}
	state.applied = seq
	r.mu.Unlock()

	in.apply(cost)
}
