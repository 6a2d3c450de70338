package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	aws_pkg "github.com/Sarthak210905/studioform-ecommerce-sub000/pkg/aws"
)

// Event types published by the checkout core.
const (
	EventCheckoutSubmitted = "checkout_submitted"
	EventPaymentSucceeded  = "payment_succeeded"
	EventPaymentFailed     = "payment_failed"
	EventOrderCancelled    = "order_cancelled"
	EventExchangeRequested = "exchange_requested"
)

// CheckoutEvent is the payload for order-submission and payment events.
type CheckoutEvent struct {
	EventType   string    `json:"event_type"`
	SessionID   string    `json:"session_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	OrderNumber string    `json:"order_number,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	CouponCode  string    `json:"coupon_code,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher fans checkout events out to Kafka and SNS. Both sinks are
// best-effort: a publish failure is logged and never fails the request.
type Publisher struct {
	writer      *kafkago.Writer
	sns         aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewPublisher creates a Publisher. brokers may be empty (no Kafka sink) and
// sns may be nil (no SNS sink).
func NewPublisher(brokers []string, topic string, sns aws_pkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) *Publisher {
	var writer *kafkago.Writer
	if len(brokers) > 0 && topic != "" {
		writer = &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		}
	}
	return &Publisher{
		writer:      writer,
		sns:         sns,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// Publish sends the event to all configured sinks, keyed for partitioning.
func (p *Publisher) Publish(ctx context.Context, key string, event CheckoutEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", event.EventType), zap.Error(err))
		return
	}

	if p.writer != nil {
		msg := kafkago.Message{Key: []byte(key), Value: data}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Warn("Kafka publish failed", zap.String("event_type", event.EventType), zap.Error(err))
		}
	}

	if p.sns != nil && p.snsTopicArn != "" {
		if err := p.sns.Publish(ctx, p.snsTopicArn, data); err != nil {
			p.logger.Warn("SNS publish failed", zap.String("event_type", event.EventType), zap.Error(err))
		}
	}
}

// Close flushes and closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
