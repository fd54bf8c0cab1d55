package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/app/lifecycle"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// Service is the administrative console: payment verification, status
// control including terminal transitions, and the logged lock override.
type Service struct {
	orders     interfaces.OrderRepository
	locks      interfaces.LockRepository
	activity   interfaces.ActivityRepository
	engine     *lifecycle.Engine
	publisher  interfaces.MessagePublisher
	logger     logger.Logger
	maxRetries int
}

func NewService(
	orders interfaces.OrderRepository,
	locks interfaces.LockRepository,
	activity interfaces.ActivityRepository,
	engine *lifecycle.Engine,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	maxRetries int,
) *Service {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Service{
		orders:     orders,
		locks:      locks,
		activity:   activity,
		engine:     engine,
		publisher:  publisher,
		logger:     lgr,
		maxRetries: maxRetries,
	}
}

// VerifyPayment marks the payment verified and advances the order to
// preparing. The payment flag is written first under its own CAS loop; the
// status change then goes through the shared engine like any other
// proposal.
func (s *Service) VerifyPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	var verified bool

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if order.PaymentStatus == domain.PaymentVerified {
			verified = true
			break
		}

		locked, err := s.locks.IsLocked(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, domain.ErrLockedOrder
		}

		next := order.Clone()
		next.PaymentStatus = domain.PaymentVerified
		next.UpdatedAt = time.Now().UTC()

		err = s.orders.UpdateCAS(ctx, next, order.Version)
		if err == nil {
			verified = true
			s.logger.Info("payment_verified", fmt.Sprintf("Payment verified for %s", orderID), orderID, nil)
			break
		}
		if !errors.Is(err, domain.ErrStaleWriteConflict) {
			return nil, err
		}
	}

	if !verified {
		return nil, domain.ErrStaleWriteConflict
	}

	return s.engine.Propose(ctx, orderID, domain.StatusPreparing, domain.ActorAdmin)
}

func (s *Service) SetStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error) {
	return s.engine.Propose(ctx, orderID, status, domain.ActorAdmin)
}

func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.engine.Propose(ctx, orderID, domain.StatusCancelled, domain.ActorAdmin)
}

// Unlock removes the permanent lock on an order so a mis-marked completion
// can be corrected. The override is audited in the lock registry, recorded
// in the activity log and broadcast so cached views pick the order back up.
func (s *Service) Unlock(ctx context.Context, orderID string, operator string) error {
	if err := s.locks.Unlock(ctx, orderID, operator); err != nil {
		return err
	}

	now := time.Now().UTC()

	if err := s.publisher.PublishOrderEvent(ctx, interfaces.OrderEventMessage{
		Kind:      interfaces.EventOrderUnlocked,
		OrderID:   orderID,
		Actor:     domain.ActorAdmin,
		Timestamp: now,
	}); err != nil {
		s.logger.Error("publish_failed", "Failed to broadcast unlock", orderID, nil, err)
	}

	entry := domain.ActivityEntry{
		OrderID:   orderID,
		Type:      "unlock",
		Message:   fmt.Sprintf("Order %s unlocked by %s (administrative override)", orderID, operator),
		Timestamp: now,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("activity_append_failed", "Failed to record unlock", orderID, nil, err)
	}

	s.logger.Warn("order_unlocked", fmt.Sprintf("Order %s unlocked by %s", orderID, operator), orderID, map[string]interface{}{
		"operator": operator,
	})

	return nil
}

func (s *Service) Activity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	return s.activity.ListRecent(ctx, limit)
}
