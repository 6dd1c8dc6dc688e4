package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/order"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventSource is the poller's view of the outbox table.
type EventSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*order.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// CartClearer re-applies the cart clear for paid orders. The cutoff keeps the
// recovery clear from wiping a cart the shopper has touched since the
// payment, including the common case where the clear already happened.
type CartClearer interface {
	ClearIfUntouchedSince(ctx context.Context, sessionID string, cutoff time.Time) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains payment events committed alongside order transitions:
// it publishes each event to Kafka, re-clears the originating session's cart
// (recovery for a crash between commit and clear) and marks the event
// processed. Delivery is at-least-once.
type OutboxPoller struct {
	tick   time.Duration
	source EventSource
	carts  CartClearer
	writer MessageWriter
	logger *zap.Logger
}

func NewOutboxPoller(source EventSource, carts CartClearer, logger *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "payment-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		tick:   time.Second,
		source: source,
		carts:  carts,
		writer: w,
		logger: logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.source.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if errPublish := p.publish(ctx, event); errPublish != nil {
			p.logger.Error("failed to publish event",
				zap.Int64("event_id", event.ID), zap.Error(errPublish))
			continue
		}

		if errClear := p.clearCart(ctx, event); errClear != nil {
			// Leave the event unprocessed; the next tick retries the clear.
			p.logger.Error("failed to clear cart for event",
				zap.Int64("event_id", event.ID), zap.Error(errClear))
			continue
		}

		if errMark := p.source.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			p.logger.Error("failed to mark event as processed",
				zap.Int64("event_id", event.ID), zap.Error(errMark))
			continue
		}
	}
}

func (p *OutboxPoller) clearCart(ctx context.Context, event *order.OutboxEvent) error {
	if event.EventType != order.EventPaymentSucceeded {
		return nil
	}

	var payload order.PaymentSucceededPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	return p.carts.ClearIfUntouchedSince(ctx, payload.SessionID, payload.PaidAt)
}

func (p *OutboxPoller) publish(ctx context.Context, event *order.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for ordering
		Value: event.Payload,             // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
