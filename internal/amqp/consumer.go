package amqp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"spendview/internal/log"
)

// ErrDiscard tells the consumer to drop a message instead of requeueing it.
var ErrDiscard = errors.New("discard message")

// Handler processes one decoded query event.
type Handler func(ctx context.Context, msg *QueryExecutedMessage) error

// Consumer reads query events from a durable queue bound to the audit exchange.
type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	logger  *log.Logger
}

func NewConsumer(url, exchangeName, queueName, bindingKey string, prefetch int, logger *log.Logger) (*Consumer, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if bindingKey == "" {
		bindingKey = EventQueryExecuted
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(step string, err error) (*Consumer, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}

	// Declare queue
	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fail("declare queue", err)
	}

	if err := ch.QueueBind(q.Name, bindingKey, exchangeName, false, nil); err != nil {
		return fail("bind queue", err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fail("set prefetch", err)
		}
	}

	logger = logger.WithComponent(log.ComponentAMQP)
	logger.Info("AMQP consumer ready",
		"exchange", exchangeName,
		"queue", q.Name,
		"binding_key", bindingKey)

	return &Consumer{conn: conn, channel: ch, queue: q.Name, logger: logger}, nil
}

// ConsumeQueryExecuted delivers events to handler until ctx is cancelled.
func (c *Consumer) ConsumeQueryExecuted(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack (we want manual ack)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming query events", "queue", c.queue)
	return consume(ctx, msgs, handler, c.logger)
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// consume acks handled deliveries, drops undecodable or discarded ones and
// requeues the rest.
func consume(ctx context.Context, msgs <-chan amqp091.Delivery, handler Handler, logger *log.Logger) error {
	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := QueryExecutedMessageFromJSON(delivery.Body)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				requeue := !errors.Is(err, ErrDiscard)
				logger.ErrorContext(ctx, "Failed to handle message",
					log.FieldError, err,
					log.FieldQuerySlug, msg.Slug,
					"requeue", requeue)
				delivery.Nack(false, requeue)
				continue
			}

			delivery.Ack(false)
		}
	}
}
