package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/events"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// CartStore is the injected cart state, cleared only after confirmed payment.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

// SessionStore persists checkout sessions and owns the single-flight
// submission locks.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	GetSessionByUser(ctx context.Context, userID string) (*models.CheckoutSession, error)
	SaveSession(ctx context.Context, session *models.CheckoutSession) error
	DeleteSession(ctx context.Context, sessionID string) error
	AcquireSubmitLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	ReleaseSubmitLock(ctx context.Context, sessionID string) error
}

// PaymentGateway opens payment sessions with the external provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, sessionID string, order *models.Order, customerContact string) (*models.PaymentSession, error)
}

// PaymentResolver is the pending-payment future the gateway callbacks
// resolve and the orchestrator awaits.
type PaymentResolver interface {
	Open(sessionID string) <-chan models.PaymentOutcome
	Resolve(sessionID string, outcome models.PaymentOutcome)
	Await(ctx context.Context, sessionID string) (models.PaymentOutcome, error)
}

// KeepAlive is one session-scoped background pinger.
type KeepAlive interface {
	Start()
	Stop()
}

// Per-line weight estimate used for shipping quotes; the catalog does not
// expose item weights to this service.
const itemWeightKg = 0.4

const submitLockTTL = 90 * time.Second

// CheckoutService drives the checkout flow from address selection through
// payment resolution.
type CheckoutService interface {
	CreateSession(ctx context.Context, userID string) (*models.CheckoutSession, *ServiceError)
	GetSession(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *ServiceError)
	ListAddresses(ctx context.Context) ([]models.Address, *ServiceError)
	SelectAddress(ctx context.Context, userID, sessionID string, req *models.SelectAddressRequest) (*models.CheckoutSession, *ServiceError)
	NotifyCartChanged(ctx context.Context, userID string) *ServiceError
	ApplyCoupon(ctx context.Context, userID, sessionID, code string) (*models.CheckoutSession, *models.CouponResult, *ServiceError)
	RemoveCoupon(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *ServiceError)
	Submit(ctx context.Context, userID, sessionID, paymentMethod string) (*models.CheckoutSession, *ServiceError)
	AwaitPayment(ctx context.Context, userID, sessionID string) (*models.PaymentOutcome, *ServiceError)
	HandlePaymentSuccess(ctx context.Context, sessionID, paymentID string) (*models.CheckoutSession, *ServiceError)
	HandlePaymentFailure(ctx context.Context, sessionID, reason string) (*models.CheckoutSession, *ServiceError)
	Abandon(ctx context.Context, userID, sessionID string) *ServiceError
}

type checkoutServiceImpl struct {
	sessions     SessionStore
	carts        CartStore
	backend      Backend
	shipping     ShippingService
	recalc       *ShippingRecalculator
	coupons      CouponService
	pricing      PricingService
	gateway      PaymentGateway
	payments     PaymentResolver
	publisher    EventPublisher
	newKeepAlive func() KeepAlive

	mu         sync.Mutex
	keepAlives map[string]KeepAlive

	logger *zap.Logger
}

// NewCheckoutService wires the orchestrator. newKeepAlive builds one
// session-scoped keep-alive; tests supply fakes for every collaborator.
func NewCheckoutService(
	sessions SessionStore,
	carts CartStore,
	backend Backend,
	shipping ShippingService,
	recalc *ShippingRecalculator,
	coupons CouponService,
	pricing PricingService,
	gateway PaymentGateway,
	payments PaymentResolver,
	publisher EventPublisher,
	newKeepAlive func() KeepAlive,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		sessions:     sessions,
		carts:        carts,
		backend:      backend,
		shipping:     shipping,
		recalc:       recalc,
		coupons:      coupons,
		pricing:      pricing,
		gateway:      gateway,
		payments:     payments,
		publisher:    publisher,
		newKeepAlive: newKeepAlive,
		keepAlives:   make(map[string]KeepAlive),
		logger:       logger,
	}
}

// CreateSession starts a checkout flow over the user's current cart. The
// backend is pre-warmed in the background so the address load that follows
// does not eat the cold start, and the critical keep-alive runs until the
// flow exits.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, userID string) (*models.CheckoutSession, *ServiceError) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Cart load failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Could not load cart"}
	}
	if cart.IsEmpty() {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}
	if err := cart.Validate(); err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: err.Error()}
	}

	session := &models.CheckoutSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.CheckoutSelectingAddress,
		Subtotal:  RoundMoney(cart.Subtotal()),
		CreatedAt: time.Now(),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not create checkout session"}
	}

	ka := s.newKeepAlive()
	s.mu.Lock()
	s.keepAlives[session.ID] = ka
	s.mu.Unlock()
	ka.Start()

	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.backend.PreWarm(warmCtx)
	}()

	s.logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
		zap.Float64("subtotal", session.Subtotal),
	)
	return session, nil
}

func (s *checkoutServiceImpl) GetSession(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *ServiceError) {
	return s.loadOwned(ctx, userID, sessionID)
}

// ListAddresses reads the user's address book from the backend to seed
// address selection. Read path, so the retry policy applies.
func (s *checkoutServiceImpl) ListAddresses(ctx context.Context) ([]models.Address, *ServiceError) {
	var addresses []models.Address
	if err := s.backend.Get(ctx, "/addresses/", &addresses); err != nil {
		s.logger.Error("Address load failed", zap.Error(err))
		return nil, upstreamServiceError(err, "Could not load addresses")
	}
	return addresses, nil
}

// SelectAddress picks a saved address or accepts a locally validated new one,
// then schedules the debounced shipping recalculation. Shipping becomes
// unresolved immediately: submission is blocked until the calculation lands.
func (s *checkoutServiceImpl) SelectAddress(ctx context.Context, userID, sessionID string, req *models.SelectAddressRequest) (*models.CheckoutSession, *ServiceError) {
	session, svcErr := s.loadOwned(ctx, userID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}
	if session.Status == models.CheckoutSubmitting || session.Status == models.CheckoutAwaitingPayment || session.Terminal() {
		return nil, &ServiceError{StatusCode: 409, Message: "Checkout has already been submitted"}
	}

	var address *models.Address
	switch {
	case req.AddressID != "":
		addresses, svcErr := s.ListAddresses(ctx)
		if svcErr != nil {
			return nil, svcErr
		}
		for i := range addresses {
			if addresses[i].ID == req.AddressID {
				address = &addresses[i]
				break
			}
		}
		if address == nil {
			return nil, &ServiceError{StatusCode: 404, Message: "Address not found"}
		}
	case req.Address != nil:
		if err := req.Address.Validate(); err != nil {
			return nil, &ServiceError{StatusCode: 400, Message: err.Error()}
		}
		address = req.Address
	default:
		return nil, &ServiceError{StatusCode: 400, Message: "An address is required"}
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil || cart.IsEmpty() {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	session.Address = address
	session.Subtotal = RoundMoney(cart.Subtotal())
	if svcErr := s.restartShippingCalc(ctx, session, cart); svcErr != nil {
		return nil, svcErr
	}
	return session, nil
}

// NotifyCartChanged re-prices the user's active checkout after a cart edit.
// A subtotal change invalidates the shipping quote the same way an address
// change does, and the applied coupon is re-validated against the new
// subtotal.
func (s *checkoutServiceImpl) NotifyCartChanged(ctx context.Context, userID string) *ServiceError {
	session, err := s.sessions.GetSessionByUser(ctx, userID)
	if err != nil {
		return &ServiceError{StatusCode: 500, Message: "Could not load checkout session"}
	}
	if session == nil || session.Terminal() ||
		session.Status == models.CheckoutSubmitting || session.Status == models.CheckoutAwaitingPayment {
		return nil
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return &ServiceError{StatusCode: 500, Message: "Could not load cart"}
	}
	subtotal := RoundMoney(cart.Subtotal())
	if subtotal == session.Subtotal {
		return nil
	}

	session.Subtotal = subtotal
	s.revalidateCoupon(ctx, session)

	if session.Address == nil {
		// No destination yet, so nothing to recalculate.
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return &ServiceError{StatusCode: 500, Message: "Could not update checkout session"}
		}
		return nil
	}

	s.logger.Info("Cart changed, repricing checkout",
		zap.String("session_id", session.ID),
		zap.Float64("subtotal", subtotal),
	)
	return s.restartShippingCalc(ctx, session, cart)
}

// restartShippingCalc drops the current quote and re-enters the calculating
// state for the cart's current contents. Submission stays blocked until the
// debounced recalculation lands.
func (s *checkoutServiceImpl) restartShippingCalc(ctx context.Context, session *models.CheckoutSession, cart *models.Cart) *ServiceError {
	session.ShippingCost = nil
	session.Breakdown = nil
	session.Status = models.CheckoutCalculatingShipping
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return &ServiceError{StatusCode: 500, Message: "Could not update checkout session"}
	}
	s.scheduleShipping(session, cart)
	return nil
}

// revalidateCoupon re-checks the applied coupon against the session's
// current subtotal, dropping it if it no longer qualifies.
func (s *checkoutServiceImpl) revalidateCoupon(ctx context.Context, session *models.CheckoutSession) {
	if session.Coupon == nil {
		return
	}
	result, svcErr := s.coupons.Validate(ctx, session.Coupon.Code, session.Subtotal)
	if svcErr != nil || !result.Valid {
		s.logger.Info("Coupon dropped after subtotal change",
			zap.String("session_id", session.ID),
			zap.String("code", session.Coupon.Code),
		)
		session.Coupon = nil
		return
	}
	session.Coupon.Discount = result.DiscountAmount
}

// scheduleShipping funnels address/subtotal changes through the debounced
// recalculator; the apply callback carries the result back onto the session
// only if it is still the freshest one.
func (s *checkoutServiceImpl) scheduleShipping(session *models.CheckoutSession, cart *models.Cart) {
	dest := models.Destination{Pincode: session.Address.Pincode, State: session.Address.State}
	weight := cartWeightKg(cart)
	sessionID := session.ID

	s.recalc.Request(sessionID, dest, session.Subtotal, weight, session.PaymentMethod, func(cost models.ShippingCost) {
		s.applyShippingCost(sessionID, cost)
	})
}

func (s *checkoutServiceImpl) applyShippingCost(sessionID string, cost models.ShippingCost) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil || session == nil || session.Terminal() {
		return
	}

	amount := cost.Amount
	session.ShippingCost = &amount
	session.ShippingDays = [2]int{cost.EstimatedDaysMin, cost.EstimatedDaysMax}
	if session.Status == models.CheckoutCalculatingShipping {
		session.Status = models.CheckoutReady
	}
	s.reprice(session)

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		s.logger.Error("Failed to save shipping result", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	s.logger.Info("Shipping cost resolved",
		zap.String("session_id", sessionID),
		zap.Float64("amount", amount),
		zap.String("source", cost.Source),
	)
}

// ApplyCoupon validates and applies a coupon. Re-applying replaces the
// previous one: the last successful application wins.
func (s *checkoutServiceImpl) ApplyCoupon(ctx context.Context, userID, sessionID, code string) (*models.CheckoutSession, *models.CouponResult, *ServiceError) {
	session, svcErr := s.loadOwned(ctx, userID, sessionID)
	if svcErr != nil {
		return nil, nil, svcErr
	}
	if session.Status == models.CheckoutSubmitting || session.Status == models.CheckoutAwaitingPayment || session.Terminal() {
		return nil, nil, &ServiceError{StatusCode: 409, Message: "Checkout has already been submitted"}
	}

	result, svcErr := s.coupons.Validate(ctx, code, session.Subtotal)
	if svcErr != nil {
		return nil, nil, svcErr
	}
	if !result.Valid {
		return session, result, nil
	}

	session.Coupon = &models.AppliedCoupon{Code: result.Code, Discount: result.DiscountAmount}
	s.reprice(session)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, nil, &ServiceError{StatusCode: 500, Message: "Could not update checkout session"}
	}
	return session, result, nil
}

func (s *checkoutServiceImpl) RemoveCoupon(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *ServiceError) {
	session, svcErr := s.loadOwned(ctx, userID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}
	session.Coupon = nil
	s.reprice(session)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not update checkout session"}
	}
	return session, nil
}

// Submit places the order: pre-warm, cart sync, a single non-retried order
// POST, then the payment session. The Redis lock plus the submitting status
// make the whole thing single-flight; a double click gets a 409, not a
// second order.
func (s *checkoutServiceImpl) Submit(ctx context.Context, userID, sessionID, paymentMethod string) (*models.CheckoutSession, *ServiceError) {
	session, svcErr := s.loadOwned(ctx, userID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}

	switch session.Status {
	case models.CheckoutSubmitting, models.CheckoutAwaitingPayment:
		return nil, &ServiceError{StatusCode: 409, Message: "Order submission already in progress"}
	case models.CheckoutCompleted:
		return nil, &ServiceError{StatusCode: 409, Message: "Checkout already completed"}
	case models.CheckoutReady, models.CheckoutFailed:
		// allowed; Failed may retry without re-entering items
	default:
		return nil, &ServiceError{StatusCode: 409, Message: "Checkout is not ready for submission"}
	}

	if session.Address == nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Select a shipping address first"}
	}
	if !session.ShippingResolved() {
		return nil, &ServiceError{StatusCode: 409, Message: "Shipping cost is still being calculated, please wait"}
	}

	locked, err := s.sessions.AcquireSubmitLock(ctx, sessionID, submitLockTTL)
	if err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not submit order"}
	}
	if !locked {
		return nil, &ServiceError{StatusCode: 409, Message: "Order submission already in progress"}
	}
	defer s.sessions.ReleaseSubmitLock(ctx, sessionID)

	session.Status = models.CheckoutSubmitting
	session.PaymentMethod = paymentMethod
	session.FailureReason = ""
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not submit order"}
	}

	// Absorb a possible cold start before the calls that matter.
	s.backend.PreWarm(ctx)

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil || cart.IsEmpty() {
		return s.failSubmission(ctx, session, "Cart is empty"), &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	// A cart edit that raced past the change notification must not be
	// charged against the stale preview.
	if subtotal := RoundMoney(cart.Subtotal()); subtotal != session.Subtotal {
		session.Subtotal = subtotal
		s.revalidateCoupon(ctx, session)
		if svcErr := s.restartShippingCalc(ctx, session, cart); svcErr != nil {
			return nil, svcErr
		}
		return nil, &ServiceError{StatusCode: 409, Message: "Cart has changed, totals are being recalculated"}
	}

	// Mirror the cart upstream so the order is built from exactly what the
	// shopper sees.
	syncReq := models.CartSyncRequest{UserID: userID, Items: cart.Items}
	if err := s.backend.Post(ctx, "/cart/sync", syncReq, nil); err != nil {
		s.logger.Error("Cart sync failed", zap.String("session_id", sessionID), zap.Error(err))
		return s.failSubmission(ctx, session, "Order failed, please try again"),
			&ServiceError{StatusCode: 502, Message: "Order failed, please try again"}
	}

	couponCode := ""
	if session.Coupon != nil {
		couponCode = session.Coupon.Code
	}
	orderReq := models.CreateOrderRequest{
		UserID:          userID,
		Items:           cart.Items,
		ShippingAddress: *session.Address,
		PaymentMethod:   paymentMethod,
		CouponCode:      couponCode,
	}

	// Single attempt: order creation is not idempotent. On failure the user
	// decides whether to retry.
	var order models.Order
	if err := s.backend.Post(ctx, "/orders/", orderReq, &order); err != nil {
		s.logger.Error("Order creation failed", zap.String("session_id", sessionID), zap.Error(err))
		return s.failSubmission(ctx, session, "Order failed, please try again"),
			upstreamServiceError(err, "Order failed")
	}

	// The backend's totals are authoritative over the local preview.
	session.OrderID = order.ID
	session.OrderNumber = order.OrderNumber
	session.Breakdown = &order.Breakdown

	s.publisher.Publish(ctx, order.ID, events.CheckoutEvent{
		EventType:   events.EventCheckoutSubmitted,
		SessionID:   sessionID,
		UserID:      userID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      order.Breakdown.Total,
		CouponCode:  couponCode,
	})

	if paymentMethod == "cod" {
		// Nothing to collect now; the flow completes on order creation.
		session.Status = models.CheckoutCompleted
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return nil, &ServiceError{StatusCode: 500, Message: "Could not finalize order"}
		}
		if err := s.carts.DeleteCart(ctx, userID); err != nil {
			s.logger.Warn("Cart clear failed after order", zap.String("user_id", userID), zap.Error(err))
		}
		s.finishFlow(ctx, session, true)
		return session, nil
	}

	contact := session.Address.Phone
	paySession, err := s.gateway.CreateSession(ctx, sessionID, &order, contact)
	if err != nil {
		s.logger.Error("Payment session creation failed", zap.String("order_id", order.ID), zap.Error(err))
		return s.failSubmission(ctx, session, "Could not start payment, please try again"),
			&ServiceError{StatusCode: 502, Message: "Could not start payment, please try again"}
	}

	session.PaymentRef = paySession.ProviderRef
	session.Status = models.CheckoutAwaitingPayment
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not submit order"}
	}
	s.payments.Open(sessionID)

	s.logger.Info("Order submitted",
		zap.String("session_id", sessionID),
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Breakdown.Total),
	)
	return session, nil
}

// AwaitPayment blocks until the session's in-flight payment resolves or ctx
// ends. A nil outcome with a nil error means the payment is still pending;
// the client polls again. Sessions already settled answer from the stored
// state, which also covers outcomes resolved on another replica.
func (s *checkoutServiceImpl) AwaitPayment(ctx context.Context, userID, sessionID string) (*models.PaymentOutcome, *ServiceError) {
	session, svcErr := s.loadOwned(ctx, userID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}

	switch session.Status {
	case models.CheckoutCompleted:
		return &models.PaymentOutcome{Succeeded: true, PaymentID: session.PaymentRef}, nil
	case models.CheckoutFailed:
		return &models.PaymentOutcome{Succeeded: false, Reason: session.FailureReason}, nil
	case models.CheckoutAwaitingPayment:
	default:
		return nil, &ServiceError{StatusCode: 409, Message: "No payment is awaited for this checkout"}
	}

	outcome, err := s.payments.Await(ctx, sessionID)
	if err != nil {
		// Wait window lapsed, or the registry entry lives elsewhere. The
		// session record is the durable truth either way.
		return nil, nil
	}
	return &outcome, nil
}

// HandlePaymentSuccess is driven by the gateway's success callback. Only now
// is the cart cleared.
func (s *checkoutServiceImpl) HandlePaymentSuccess(ctx context.Context, sessionID, paymentID string) (*models.CheckoutSession, *ServiceError) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Checkout session not found"}
	}
	if session.Status != models.CheckoutAwaitingPayment {
		return nil, &ServiceError{StatusCode: 409, Message: "No payment is awaited for this checkout"}
	}

	session.Status = models.CheckoutCompleted
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not record payment"}
	}

	if err := s.carts.DeleteCart(ctx, session.UserID); err != nil {
		s.logger.Warn("Cart clear failed after payment", zap.String("user_id", session.UserID), zap.Error(err))
	}

	s.payments.Resolve(sessionID, models.PaymentOutcome{Succeeded: true, PaymentID: paymentID})
	s.finishFlow(ctx, session, true)

	s.publisher.Publish(ctx, session.OrderID, events.CheckoutEvent{
		EventType:   events.EventPaymentSucceeded,
		SessionID:   sessionID,
		UserID:      session.UserID,
		OrderID:     session.OrderID,
		OrderNumber: session.OrderNumber,
	})
	return session, nil
}

// HandlePaymentFailure is driven by the gateway's failure callback. The cart
// is preserved and the order stays in a retryable payment state upstream, so
// the user can pay again without a new order.
func (s *checkoutServiceImpl) HandlePaymentFailure(ctx context.Context, sessionID, reason string) (*models.CheckoutSession, *ServiceError) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Checkout session not found"}
	}
	if session.Status != models.CheckoutAwaitingPayment {
		return nil, &ServiceError{StatusCode: 409, Message: "No payment is awaited for this checkout"}
	}

	session.Status = models.CheckoutFailed
	session.FailureReason = reason
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not record payment failure"}
	}

	s.payments.Resolve(sessionID, models.PaymentOutcome{Succeeded: false, Reason: reason})
	s.finishFlow(ctx, session, false)

	s.publisher.Publish(ctx, session.OrderID, events.CheckoutEvent{
		EventType:   events.EventPaymentFailed,
		SessionID:   sessionID,
		UserID:      session.UserID,
		OrderID:     session.OrderID,
		OrderNumber: session.OrderNumber,
		Reason:      reason,
	})
	return session, nil
}

// Abandon exits the flow before submission with no side effects. Once an
// order exists, abandonment goes through order cancellation instead.
func (s *checkoutServiceImpl) Abandon(ctx context.Context, userID, sessionID string) *ServiceError {
	session, svcErr := s.loadOwned(ctx, userID, sessionID)
	if svcErr != nil {
		return svcErr
	}
	if session.Status == models.CheckoutSubmitting || session.Status == models.CheckoutAwaitingPayment {
		return &ServiceError{StatusCode: 409, Message: "Order already submitted, cancel the order instead"}
	}

	s.recalc.Cancel(sessionID)
	s.stopKeepAlive(sessionID)
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return &ServiceError{StatusCode: 500, Message: "Could not abandon checkout"}
	}
	s.logger.Info("Checkout abandoned", zap.String("session_id", sessionID))
	return nil
}

func (s *checkoutServiceImpl) loadOwned(ctx context.Context, userID, sessionID string) (*models.CheckoutSession, *ServiceError) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Could not load checkout session"}
	}
	if session == nil || session.UserID != userID {
		return nil, &ServiceError{StatusCode: 404, Message: "Checkout session not found"}
	}
	return session, nil
}

// reprice recomputes the breakdown from the session's current inputs. With
// shipping unresolved there is nothing to show yet.
func (s *checkoutServiceImpl) reprice(session *models.CheckoutSession) {
	if !session.ShippingResolved() {
		session.Breakdown = nil
		return
	}
	discount := 0.0
	if session.Coupon != nil {
		discount = session.Coupon.Discount
	}
	breakdown := s.pricing.Price(session.Subtotal, *session.ShippingCost, discount)
	session.Breakdown = &breakdown
}

// failSubmission returns the session to a retryable failed state. The cart
// is deliberately left intact.
func (s *checkoutServiceImpl) failSubmission(ctx context.Context, session *models.CheckoutSession, reason string) *models.CheckoutSession {
	session.Status = models.CheckoutFailed
	session.FailureReason = reason
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		s.logger.Error("Failed to record submission failure", zap.String("session_id", session.ID), zap.Error(err))
	}
	return session
}

// finishFlow tears down the session-scoped background work.
func (s *checkoutServiceImpl) finishFlow(ctx context.Context, session *models.CheckoutSession, succeeded bool) {
	s.recalc.Cancel(session.ID)
	s.stopKeepAlive(session.ID)
	if succeeded {
		s.logger.Info("Checkout completed",
			zap.String("session_id", session.ID),
			zap.String("order_id", session.OrderID),
		)
	}
}

func (s *checkoutServiceImpl) stopKeepAlive(sessionID string) {
	s.mu.Lock()
	ka, ok := s.keepAlives[sessionID]
	if ok {
		delete(s.keepAlives, sessionID)
	}
	s.mu.Unlock()
	if ok {
		ka.Stop()
	}
}

func cartWeightKg(cart *models.Cart) float64 {
	var units int
	for _, item := range cart.Items {
		units += item.Quantity
	}
	return float64(units) * itemWeightKg
}
