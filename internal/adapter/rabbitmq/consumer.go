package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/interfaces"
)

const (
	intakeQueue       = "mes_intake_queue"
	intakeDLQExchange = "mes_intake_dlq"
	intakeDLQQueue    = "mes_intake_queue_dlq"

	reconnectDelay = 5 * time.Second
)

type consumer struct {
	conn     Connection
	logger   logger.Logger
	prefetch int
}

func NewConsumer(conn Connection, logger logger.Logger, prefetch int) interfaces.MessageConsumer {
	return &consumer{conn: conn, logger: logger, prefetch: prefetch}
}

// ConsumeOrders reads webshop orders until the context ends, reopening the
// channel after broker hiccups. Messages the handler rejects go to the DLQ;
// they are poison (malformed recipes and the like), requeueing cannot fix
// them.
func (c *consumer) ConsumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	for {
		err := c.consumeOrdersOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Orders consumer disconnected, reconnecting", "", nil, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *consumer) ConsumeScheduleUpdates(ctx context.Context, handler interfaces.ScheduleUpdateHandler) error {
	for {
		err := c.consumeUpdatesOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Updates consumer disconnected, reconnecting", "", nil, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *consumer) consumeOrdersOnce(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := c.setupIntakeTopology(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(intakeQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				msg.Nack(false, false)
			} else {
				msg.Ack(false)
			}
		}
	}
}

func (c *consumer) consumeUpdatesOnce(ctx context.Context, handler interfaces.ScheduleUpdateHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(updatesExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", updatesExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			_ = handler(ctx, msg.Body)
		}
	}
}

func (c *consumer) setupIntakeTopology(ch Channel) error {
	if err := ch.ExchangeDeclare(ordersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(intakeDLQExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(intakeDLQQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := ch.QueueBind(intakeDLQQueue, "#", intakeDLQExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": intakeDLQExchange,
	}
	q, err := ch.QueueDeclare(intakeQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare intake queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "mes.#", ordersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind intake queue: %w", err)
	}
	return nil
}
