package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cleanbite/ordersync/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

// PublishOrderEvent fans a lifecycle event out to all actor processes.
// Delivery is at-least-once at best; subscribers treat it as a resync hint,
// never as the source of truth.
func (p *publisher) PublishOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	return p.publish(msg.Kind, OrderEventsExchange, msg)
}

// PublishNotification hands a fire-and-forget request to the external
// notification service.
func (p *publisher) PublishNotification(ctx context.Context, msg interfaces.NotificationMessage) error {
	return p.publish(msg.Kind, NotificationsExchange, msg)
}

func (p *publisher) publish(kind, exchange string, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.Publish(exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         kind,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
