package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
)

// --- Mock backend ---

type mockBackend struct {
	mu       sync.Mutex
	posts    []string
	lastReq  models.ShippingQuoteRequest
	postErr  error
	quote    models.ShippingQuoteResponse
	delay    time.Duration
	preWarms int32
}

func (m *mockBackend) Get(_ context.Context, path string, out interface{}) error {
	return errors.New("not implemented")
}

func (m *mockBackend) Post(_ context.Context, path string, body, out interface{}) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.posts = append(m.posts, path)
	if req, ok := body.(models.ShippingQuoteRequest); ok {
		m.lastReq = req
	}
	m.mu.Unlock()
	if m.postErr != nil {
		return m.postErr
	}
	if q, ok := out.(*models.ShippingQuoteResponse); ok {
		*q = m.quote
	}
	return nil
}

func (m *mockBackend) Put(_ context.Context, path string, _, _ interface{}) error {
	return errors.New("not implemented")
}

func (m *mockBackend) PreWarm(_ context.Context) {
	atomic.AddInt32(&m.preWarms, 1)
}

func (m *mockBackend) quoteRequest() models.ShippingQuoteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

func (m *mockBackend) postCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

func newShippingService(backend services.Backend) services.ShippingService {
	logger, _ := zap.NewDevelopment()
	return services.NewShippingService(backend, 150, 1499, logger)
}

// --- ShippingService tests ---

func TestCalculateUsesZoneQuote(t *testing.T) {
	backend := &mockBackend{quote: models.ShippingQuoteResponse{
		ShippingCost:     80,
		EstimatedDaysMin: 2,
		EstimatedDaysMax: 4,
	}}
	svc := newShippingService(backend)

	cost := svc.Calculate(context.Background(), models.Destination{Pincode: "452001", State: "Madhya Pradesh"}, 1000, 0.8, "card")

	assert.Equal(t, 80.0, cost.Amount)
	assert.Equal(t, models.ShippingSourceZone, cost.Source)
	assert.Equal(t, 2, cost.EstimatedDaysMin)
	assert.Equal(t, 1, backend.postCount())
}

func TestCalculateForwardsCODAmount(t *testing.T) {
	backend := &mockBackend{quote: models.ShippingQuoteResponse{ShippingCost: 80}}
	svc := newShippingService(backend)

	svc.Calculate(context.Background(), models.Destination{Pincode: "452001", State: "MP"}, 1000, 0.8, "cod")
	assert.Equal(t, 1000.0, backend.quoteRequest().CODAmount)

	svc.Calculate(context.Background(), models.Destination{Pincode: "452001", State: "MP"}, 1000, 0.8, "card")
	assert.Equal(t, 0.0, backend.quoteRequest().CODAmount)
}

func TestCalculateFallsBackOnRemoteFailure(t *testing.T) {
	backend := &mockBackend{postErr: errors.New("connection refused")}
	svc := newShippingService(backend)

	cost := svc.Calculate(context.Background(), models.Destination{Pincode: "452001", State: "Madhya Pradesh"}, 1000, 0.8, "card")

	assert.Equal(t, 150.0, cost.Amount)
	assert.Equal(t, models.ShippingSourceFallback, cost.Source)
}

func TestCalculateFallbackFreeAboveThreshold(t *testing.T) {
	backend := &mockBackend{postErr: errors.New("connection refused")}
	svc := newShippingService(backend)

	free := svc.Calculate(context.Background(), models.Destination{Pincode: "452001", State: "MP"}, 1499, 0.8, "card")
	paid := svc.Calculate(context.Background(), models.Destination{Pincode: "452001", State: "MP"}, 1498.99, 0.8, "card")

	assert.Equal(t, 0.0, free.Amount)
	assert.Equal(t, 150.0, paid.Amount)
}

func TestCalculateIncompleteDestinationSkipsRemote(t *testing.T) {
	backend := &mockBackend{}
	svc := newShippingService(backend)

	cost := svc.Calculate(context.Background(), models.Destination{Pincode: "4520"}, 1000, 0.8, "card")

	assert.Equal(t, models.ShippingSourceFallback, cost.Source)
	assert.Equal(t, 150.0, cost.Amount)
	assert.Equal(t, 0, backend.postCount())
}

func TestFallbackIsDeterministic(t *testing.T) {
	incomplete := &mockBackend{}
	broken := &mockBackend{postErr: errors.New("boom")}
	dest := models.Destination{Pincode: "452001", State: "MP"}

	fromIncomplete := newShippingService(incomplete).Calculate(context.Background(), models.Destination{}, 900, 0.4, "card")
	fromFailure := newShippingService(broken).Calculate(context.Background(), dest, 900, 0.4, "card")

	assert.Equal(t, fromIncomplete.Amount, fromFailure.Amount)
	assert.Equal(t, fromIncomplete.Source, fromFailure.Source)
}

// --- ShippingRecalculator tests ---

func TestRecalculatorCoalescesRapidRequests(t *testing.T) {
	backend := &mockBackend{quote: models.ShippingQuoteResponse{ShippingCost: 60}}
	svc := newShippingService(backend)
	recalc := services.NewShippingRecalculator(svc, 30*time.Millisecond)

	var mu sync.Mutex
	var applied []models.ShippingCost
	apply := func(c models.ShippingCost) {
		mu.Lock()
		applied = append(applied, c)
		mu.Unlock()
	}

	dest := models.Destination{Pincode: "452001", State: "MP"}
	for i := 0; i < 5; i++ {
		recalc.Request("sess-1", dest, 1000, 0.4, "card", apply)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, applied, 1)
	assert.Equal(t, 1, backend.postCount())
}

func TestRecalculatorUsesLatestValues(t *testing.T) {
	backend := &mockBackend{postErr: errors.New("down")}
	svc := newShippingService(backend)
	recalc := services.NewShippingRecalculator(svc, 20*time.Millisecond)

	results := make(chan models.ShippingCost, 1)
	dest := models.Destination{Pincode: "452001", State: "MP"}

	// First request would ship free; the immediate second one would not.
	// Only the second's values may be used.
	recalc.Request("sess-2", dest, 2000, 0.4, "card", func(c models.ShippingCost) { results <- c })
	recalc.Request("sess-2", dest, 900, 0.4, "card", func(c models.ShippingCost) { results <- c })

	select {
	case cost := <-results:
		assert.Equal(t, 150.0, cost.Amount)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}

	select {
	case <-results:
		t.Fatal("coalesced request produced a second result")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRecalculatorCancelDropsPending(t *testing.T) {
	backend := &mockBackend{}
	svc := newShippingService(backend)
	recalc := services.NewShippingRecalculator(svc, 20*time.Millisecond)

	fired := make(chan struct{}, 1)
	recalc.Request("sess-3", models.Destination{Pincode: "452001", State: "MP"}, 1000, 0.4, "card", func(models.ShippingCost) {
		fired <- struct{}{}
	})
	recalc.Cancel("sess-3")

	select {
	case <-fired:
		t.Fatal("cancelled request still fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRecalculatorDropsStaleResult(t *testing.T) {
	// The first calculation is slow; the second finishes first. The slow
	// result must not overwrite the fresh one.
	slow := &slowThenFastBackend{
		firstDelay: 80 * time.Millisecond,
		firstCost:  999,
		laterCost:  60,
	}
	svc := newShippingService(slow)
	recalc := services.NewShippingRecalculator(svc, 5*time.Millisecond)

	var mu sync.Mutex
	var applied []float64
	apply := func(c models.ShippingCost) {
		mu.Lock()
		applied = append(applied, c.Amount)
		mu.Unlock()
	}

	dest := models.Destination{Pincode: "452001", State: "MP"}
	recalc.Request("sess-4", dest, 1000, 0.4, "card", apply)
	time.Sleep(20 * time.Millisecond) // let the slow calculation start
	recalc.Request("sess-4", dest, 1000, 0.4, "card", apply)

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{60}, applied)
}

type slowThenFastBackend struct {
	mu         sync.Mutex
	calls      int
	firstDelay time.Duration
	firstCost  float64
	laterCost  float64
}

func (b *slowThenFastBackend) Get(_ context.Context, _ string, _ interface{}) error {
	return errors.New("not implemented")
}

func (b *slowThenFastBackend) Post(_ context.Context, _ string, _, out interface{}) error {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()

	cost := b.laterCost
	if call == 1 {
		time.Sleep(b.firstDelay)
		cost = b.firstCost
	}
	if q, ok := out.(*models.ShippingQuoteResponse); ok {
		*q = models.ShippingQuoteResponse{ShippingCost: cost}
	}
	return nil
}

func (b *slowThenFastBackend) Put(_ context.Context, _ string, _, _ interface{}) error {
	return errors.New("not implemented")
}

func (b *slowThenFastBackend) PreWarm(_ context.Context) {}
