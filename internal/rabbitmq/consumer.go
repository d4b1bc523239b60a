package rabbitmq

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"briar-gateway/internal/observability"
)

// CoreEventsBinding matches the reports the messaging core publishes about transport activity.
const CoreEventsBinding = "core.events.*"

// ErrConsumerClosed is returned by Run when the broker closes the delivery channel.
var ErrConsumerClosed = errors.New("amqp delivery channel closed")

// Handler processes one delivery. A nil error acks it; any error rejects it without requeueing.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consumer reads core reports from a durable queue bound to the gateway exchange.
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	handler Handler
	log     *slog.Logger
}

// NewConsumer declares queue, binds it to exchange with CoreEventsBinding and prepares to
// consume it. Deliveries are processed one at a time so per-contact order is kept.
func NewConsumer(amqpURL, exchange, queue string, handler Handler, log *slog.Logger) (*Consumer, error) {
	conn, ch, err := dialExchange(amqpURL, exchange)
	if err != nil {
		return nil, err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.QueueBind(queue, CoreEventsBinding, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	log.Info("RabbitMQ consumer bound", "exchange", exchange, "queue", queue, "binding", CoreEventsBinding)
	return &Consumer{conn: conn, ch: ch, queue: queue, handler: handler, log: log}, nil
}

// Run consumes until ctx is done or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	return consume(ctx, deliveries, c.handler, c.log)
}

func consume(ctx context.Context, deliveries <-chan amqp.Delivery, handler Handler, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrConsumerClosed
			}
			handle(ctx, d, handler, log)
		}
	}
}

func handle(ctx context.Context, d amqp.Delivery, handler Handler, log *slog.Logger) {
	if err := handler(ctx, d.RoutingKey, d.Body); err != nil {
		observability.IncCoreEvent(d.RoutingKey, "rejected")
		log.Warn("Rejecting core report", "routing_key", d.RoutingKey, "err", err)
		if err := d.Nack(false, false); err != nil {
			log.Warn("Failed to reject delivery", "err", err)
		}
		return
	}
	observability.IncCoreEvent(d.RoutingKey, "processed")
	if err := d.Ack(false); err != nil {
		log.Warn("Failed to ack delivery", "err", err)
	}
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
