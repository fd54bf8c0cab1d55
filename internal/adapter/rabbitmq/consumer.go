package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cleanbite/ordersync/internal/interfaces"
)

type consumer struct {
	conn Connection
}

func NewConsumer(conn Connection) interfaces.MessageConsumer {
	return &consumer{conn: conn}
}

func (c *consumer) ConsumeOrderEvents(ctx context.Context, handler interfaces.OrderEventHandler) error {
	return c.consumeLoop(ctx, OrderEventsExchange, handler)
}

func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.consumeLoop(ctx, NotificationsExchange, interfaces.OrderEventHandler(handler))
}

// consumeLoop keeps the subscription alive across broker hiccups. A dropped
// subscriber simply reconnects; anything missed in between is healed by the
// periodic store resync, so no replay is attempted here.
func (c *consumer) consumeLoop(ctx context.Context, exchange string, handler interfaces.OrderEventHandler) error {
	for {
		err := c.consumeOnce(ctx, exchange, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		// Логируем ошибку и пытаемся переподключиться
		log.Printf("Consumer on %s disconnected: %v. Reconnecting in 5 seconds...", exchange, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) consumeOnce(ctx context.Context, exchange string, handler interfaces.OrderEventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Временная эксклюзивная очередь: каждый актор получает свою копию
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
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

			// Ошибки обработки не прерывают подписку: шина - это подсказка,
			// состояние восстановится при следующем resync
			_ = handler(ctx, msg.Body)
		}
	}
}
