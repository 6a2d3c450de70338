package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/clients"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/events"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// EventPublisher is the best-effort domain event sink.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event events.CheckoutEvent)
}

// OrderService gates client actions on an order against its lifecycle state.
// The commerce backend owns the state machine
// (pending → processing → shipped → delivered, cancelled from
// pending/processing); this service enforces eligibility and always re-reads
// the authoritative status rather than flipping it locally.
type OrderService interface {
	GetOrder(ctx context.Context, userID, orderID string) (*models.Order, *ServiceError)
	AllowedActions(order *models.Order, now time.Time) []string
	CancelOrder(ctx context.Context, userID, orderID string) (*models.Order, *ServiceError)
	RequestExchange(ctx context.Context, userID, orderID string, req *models.ExchangeRequest) *ServiceError
}

type orderServiceImpl struct {
	backend        Backend
	publisher      EventPublisher
	exchangeWindow time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

// NewOrderService creates an OrderService with the given exchange window
// (7 days in current policy).
func NewOrderService(backend Backend, publisher EventPublisher, exchangeWindow time.Duration, logger *zap.Logger) OrderService {
	return &orderServiceImpl{
		backend:        backend,
		publisher:      publisher,
		exchangeWindow: exchangeWindow,
		now:            time.Now,
		logger:         logger,
	}
}

// GetOrder fetches the authoritative order. Reads go through the retry
// policy; re-fetching at any time returns the same authoritative status.
// Orders belonging to another user answer 404, not 403: the ID itself is
// not confirmed to exist.
func (s *orderServiceImpl) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, *ServiceError) {
	var order models.Order
	if err := s.backend.Get(ctx, "/orders/"+orderID, &order); err != nil {
		s.logger.Error("Order fetch failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, upstreamServiceError(err, "Could not load order")
	}
	if order.UserID != userID {
		s.logger.Warn("Order access denied",
			zap.String("order_id", orderID),
			zap.String("user_id", userID),
		)
		return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
	}
	return &order, nil
}

// CanCancel reports whether an order in the given status may be cancelled.
func CanCancel(status string) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusProcessing
}

// AllowedActions lists the client actions valid in the order's current
// state. The same gates back the mutating operations below: hiding a button
// is not enforcement.
func (s *orderServiceImpl) AllowedActions(order *models.Order, now time.Time) []string {
	actions := []string{models.OrderActionViewInvoice}
	if CanCancel(order.Status) {
		actions = append(actions, models.OrderActionCancel)
	}
	if s.exchangeEligible(order, now) == nil {
		actions = append(actions, models.OrderActionRequestExchange)
	}
	return actions
}

// CancelOrder cancels the order upstream if its state allows, then re-reads
// the authoritative record.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, userID, orderID string) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrder(ctx, userID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	if !CanCancel(order.Status) {
		return nil, &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Order in status %q can no longer be cancelled", order.Status),
		}
	}

	if err := s.backend.Put(ctx, "/orders/"+orderID+"/cancel", nil, nil); err != nil {
		s.logger.Error("Order cancel failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, upstreamServiceError(err, "Could not cancel order")
	}

	// Re-read rather than assuming the transition happened.
	order, svcErr = s.GetOrder(ctx, userID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	s.publisher.Publish(ctx, orderID, events.CheckoutEvent{
		EventType:   events.EventOrderCancelled,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})

	s.logger.Info("Order cancelled", zap.String("order_id", orderID))
	return order, nil
}

// RequestExchange forwards an exchange request to the returns collaborator
// once eligibility is confirmed. Exchange state itself (pending → approved/
// rejected → processing → completed) is owned by that collaborator.
func (s *orderServiceImpl) RequestExchange(ctx context.Context, userID, orderID string, req *models.ExchangeRequest) *ServiceError {
	order, svcErr := s.GetOrder(ctx, userID, orderID)
	if svcErr != nil {
		return svcErr
	}

	if err := s.exchangeEligible(order, s.now()); err != nil {
		return err
	}

	lines := make(map[string]bool, len(order.Items))
	for _, item := range order.Items {
		lines[item.ProductID] = true
	}
	for _, item := range req.Items {
		if !lines[item.ProductID] {
			return &ServiceError{
				StatusCode: 400,
				Message:    fmt.Sprintf("Product %s is not part of this order", item.ProductID),
			}
		}
	}

	req.OrderID = orderID
	req.UserID = userID
	if err := s.backend.Post(ctx, "/returns/", req, nil); err != nil {
		s.logger.Error("Exchange request failed", zap.String("order_id", orderID), zap.Error(err))
		return upstreamServiceError(err, "Could not submit exchange request")
	}

	s.publisher.Publish(ctx, orderID, events.CheckoutEvent{
		EventType:   events.EventExchangeRequested,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      req.Reason,
	})

	s.logger.Info("Exchange requested",
		zap.String("order_id", orderID),
		zap.String("reason", req.Reason),
	)
	return nil
}

// exchangeEligible checks the delivered-status and policy-window gates.
func (s *orderServiceImpl) exchangeEligible(order *models.Order, now time.Time) *ServiceError {
	if order.Status != models.OrderStatusDelivered {
		return &ServiceError{
			StatusCode: 409,
			Message:    "Exchange requests are only accepted for delivered orders",
		}
	}
	if order.DeliveredAt == nil {
		return &ServiceError{
			StatusCode: 409,
			Message:    "Delivery date unknown, contact support for exchanges",
		}
	}
	if now.Sub(*order.DeliveredAt) > s.exchangeWindow {
		days := int(s.exchangeWindow / (24 * time.Hour))
		return &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Exchange window of %d days from delivery has passed", days),
		}
	}
	return nil
}

// upstreamServiceError maps an upstream failure to a client-facing error.
// Business rejections (4xx) keep their status; transient conditions surface
// as retryable 502s.
func upstreamServiceError(err error, fallback string) *ServiceError {
	var upstream *clients.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode < 500 {
		return &ServiceError{StatusCode: upstream.StatusCode, Message: fallback}
	}
	return &ServiceError{StatusCode: 502, Message: fallback + ", please try again"}
}
