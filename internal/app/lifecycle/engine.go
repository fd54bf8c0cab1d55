package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// Engine is the single transition path shared by every actor process. Each
// proposal is read → validate → compare-and-swap write → lock if terminal →
// broadcast, with bounded retries on lost races. Linking the same engine
// into every actor is what keeps the customer, kitchen and admin views from
// drifting apart.
type Engine struct {
	orders     interfaces.OrderRepository
	locks      interfaces.LockRepository
	activity   interfaces.ActivityRepository
	publisher  interfaces.MessagePublisher
	logger     logger.Logger
	maxRetries int
}

func NewEngine(
	orders interfaces.OrderRepository,
	locks interfaces.LockRepository,
	activity interfaces.ActivityRepository,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	maxRetries int,
) *Engine {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Engine{
		orders:     orders,
		locks:      locks,
		activity:   activity,
		publisher:  publisher,
		logger:     lgr,
		maxRetries: maxRetries,
	}
}

// Propose attempts to move the order to the proposed status on behalf of
// the actor. A lost compare-and-swap race is resolved by re-reading: if the
// winning write already applied the same status, the proposal converges as
// a success; otherwise it is retried up to the bounded limit and then
// surfaced as domain.ErrStaleWriteConflict for a human to look at.
func (e *Engine) Propose(ctx context.Context, orderID string, proposed domain.Status, actor domain.Actor) (*domain.Order, error) {
	var lastErr error

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		order, err := e.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		locked, err := e.locks.IsLocked(ctx, orderID)
		if err != nil {
			return nil, err
		}

		next, err := domain.Transition(order, proposed, actor, locked, time.Now().UTC())
		if err != nil {
			e.logger.Warn("transition_rejected", fmt.Sprintf("%s -> %s rejected: %s", order.Status, proposed, domain.ReasonCode(err)), orderID, map[string]interface{}{
				"actor":  string(actor),
				"reason": domain.ReasonCode(err),
			})
			return nil, err
		}

		if next.Status == order.Status {
			// Идемпотентное повторение: статус уже совпадает
			return next, nil
		}

		if err := e.orders.UpdateCAS(ctx, next, order.Version); err != nil {
			if errors.Is(err, domain.ErrStaleWriteConflict) {
				lastErr = err
				e.logger.Debug("cas_conflict", "Stale write, re-reading", orderID, map[string]interface{}{
					"attempt": attempt + 1,
				})
				continue
			}
			return nil, err
		}

		e.afterTransition(ctx, order.Status, next, actor)
		return next, nil
	}

	return nil, lastErr
}

// afterTransition runs the post-write side effects: lock registration for
// terminal states, broadcast events and the activity trail. None of these
// failing can roll back the store write; the recovery sweep repairs a
// missed lock and the periodic resync heals missed broadcasts.
func (e *Engine) afterTransition(ctx context.Context, oldStatus domain.Status, order *domain.Order, actor domain.Actor) {
	now := time.Now().UTC()

	if reason, terminal := domain.LockReasonFor(order.Status); terminal {
		if err := e.locks.Lock(ctx, order.ID, reason); err != nil {
			// Запись уже в БД, лок восстановит recovery sweep
			e.logger.Error("lock_failed", "Order stored terminal but lock write failed", order.ID, nil, err)
		} else if err := e.publisher.PublishOrderEvent(ctx, interfaces.OrderEventMessage{
			Kind:      interfaces.EventOrderRemoved,
			OrderID:   order.ID,
			OldStatus: oldStatus,
			NewStatus: order.Status,
			Actor:     actor,
			Timestamp: now,
		}); err != nil {
			e.logger.Error("publish_failed", "Failed to broadcast removal", order.ID, nil, err)
		}
	}

	if err := e.publisher.PublishOrderEvent(ctx, interfaces.OrderEventMessage{
		Kind:      interfaces.EventStatusChanged,
		OrderID:   order.ID,
		OldStatus: oldStatus,
		NewStatus: order.Status,
		Actor:     actor,
		Timestamp: now,
	}); err != nil {
		e.logger.Error("publish_failed", "Failed to broadcast status change", order.ID, nil, err)
	}

	if order.Status == domain.StatusReady {
		e.requestReadyNotification(ctx, order, now)
	}

	entry := domain.ActivityEntry{
		OrderID:      order.ID,
		Type:         string(order.Status),
		Message:      fmt.Sprintf("Order %s moved %s -> %s by %s", order.ID, oldStatus, order.Status, actor),
		CustomerName: order.CustomerName,
		Timestamp:    now,
	}
	if err := e.activity.Append(ctx, entry); err != nil {
		e.logger.Error("activity_append_failed", "Failed to record activity", order.ID, nil, err)
	}

	e.logger.Info("status_changed", fmt.Sprintf("Order %s: %s -> %s", order.ID, oldStatus, order.Status), order.ID, map[string]interface{}{
		"actor":   string(actor),
		"version": order.Version,
	})
}

func (e *Engine) requestReadyNotification(ctx context.Context, order *domain.Order, now time.Time) {
	message := fmt.Sprintf("Order %s is ready for pickup", order.ID)
	if order.IsFermented {
		// Живые культуры: срок хранения 7 дней, не замораживать
		message = fmt.Sprintf("Order %s is ready for pickup. Fresh fermented goods, collect within 7 days, keep at 2-4C", order.ID)
	}

	err := e.publisher.PublishNotification(ctx, interfaces.NotificationMessage{
		Kind:          interfaces.NotifyReadyRequested,
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: order.CustomerEmail,
		Message:       message,
		Timestamp:     now,
	})
	if err != nil {
		e.logger.Error("publish_failed", "Failed to request ready notification", order.ID, nil, err)
	}
}
