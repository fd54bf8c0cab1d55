package interfaces

import (
	"context"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
)

// Kinds of order events carried on the broadcast exchange. The bus is a
// latency hint only: every subscriber also resyncs from the store on a
// fixed interval, so a lost message never loses data.
const (
	EventOrderCreated  = "order_created"
	EventStatusChanged = "status_changed"
	EventOrderRemoved  = "order_removed"
	EventOrderUnlocked = "order_unlocked"
)

// Kinds of notification requests consumed by the external notification
// service (fire-and-forget from this core).
const (
	NotifyReadyRequested               = "ready_notification_requested"
	NotifyPaymentVerificationRequested = "payment_verification_requested"
)

// Сообщения RabbitMQ
type OrderEventMessage struct {
	Kind      string        `json:"kind"`
	OrderID   string        `json:"order_id"`
	OldStatus domain.Status `json:"old_status,omitempty"`
	NewStatus domain.Status `json:"new_status,omitempty"`
	Actor     domain.Actor  `json:"actor"`
	Timestamp time.Time     `json:"timestamp"`
}

type NotificationMessage struct {
	Kind          string    `json:"kind"`
	OrderID       string    `json:"order_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMessage) error
	PublishNotification(ctx context.Context, msg NotificationMessage) error
}

type MessageConsumer interface {
	ConsumeOrderEvents(ctx context.Context, handler OrderEventHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	OrderEventHandler   func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
