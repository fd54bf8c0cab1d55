package amqp

import (
	"context"
	"encoding/json"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// OrderEventSink is implemented by actor services that react to broadcast
// lifecycle events.
type OrderEventSink interface {
	HandleOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error
}

type OrderEventHandler struct {
	sink   OrderEventSink
	logger logger.Logger
}

func NewOrderEventHandler(sink OrderEventSink, lgr logger.Logger) *OrderEventHandler {
	return &OrderEventHandler{
		sink:   sink,
		logger: lgr,
	}
}

func (h *OrderEventHandler) Handle(ctx context.Context, body []byte) error {
	var msg interfaces.OrderEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order event", "", nil, err)
		return err
	}

	return h.sink.HandleOrderEvent(ctx, msg)
}
