package kitchen

import (
	"context"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/app/lifecycle"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// Service keeps the kitchen display's local view. The view is disposable:
// it is rebuilt from the order store and the lock registry on every bus
// hint and, independently, on a fixed timer. Losing every bus message only
// costs latency, never correctness.
type Service struct {
	orders         interfaces.OrderRepository
	locks          interfaces.LockRepository
	engine         *lifecycle.Engine
	logger         logger.Logger
	resyncInterval time.Duration

	aggregate atomicAggregate
}

func NewService(
	orders interfaces.OrderRepository,
	locks interfaces.LockRepository,
	engine *lifecycle.Engine,
	lgr logger.Logger,
	resyncInterval time.Duration,
) *Service {
	if resyncInterval <= 0 {
		resyncInterval = 30 * time.Second
	}
	return &Service{
		orders:         orders,
		locks:          locks,
		engine:         engine,
		logger:         lgr,
		resyncInterval: resyncInterval,
	}
}

// Start runs the mandatory periodic resync until the context is cancelled.
// Bus-triggered rebuilds are layered on top of this timer, not instead of it.
func (s *Service) Start(ctx context.Context) {
	if err := s.Resync(ctx); err != nil {
		s.logger.Error("resync_failed", "Initial resync failed", "", nil, err)
	}

	ticker := time.NewTicker(s.resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Resync(ctx); err != nil {
				s.logger.Error("resync_failed", "Periodic resync failed", "", nil, err)
			}
		}
	}
}

// Resync rebuilds the kitchen aggregate from authoritative state.
func (s *Service) Resync(ctx context.Context) error {
	orders, err := s.orders.List(ctx, interfaces.OrderFilter{})
	if err != nil {
		return err
	}

	locked, err := s.locks.ListLocked(ctx)
	if err != nil {
		return err
	}

	agg := domain.BuildKitchenAggregate(orders, locked, time.Now().UTC())
	s.aggregate.store(agg)

	s.logger.Debug("aggregate_rebuilt", "Kitchen aggregate rebuilt", "", map[string]interface{}{
		"active": agg.TotalActive,
		"locked": len(locked),
	})

	return nil
}

// Aggregate returns the last rebuilt view. May be nil before the first
// resync completes.
func (s *Service) Aggregate() *domain.KitchenAggregate {
	return s.aggregate.load()
}

// HandleOrderEvent treats any broadcast event purely as a resync hint.
func (s *Service) HandleOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	s.logger.Debug("bus_hint", "Order event received, resyncing", msg.OrderID, map[string]interface{}{
		"kind": msg.Kind,
	})
	return s.Resync(ctx)
}

// ProposeStatus advances an order on behalf of the kitchen display and
// refreshes the local view on success.
func (s *Service) ProposeStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error) {
	order, err := s.engine.Propose(ctx, orderID, status, domain.ActorKitchen)
	if err != nil {
		return nil, err
	}

	if err := s.Resync(ctx); err != nil {
		s.logger.Error("resync_failed", "Resync after transition failed", orderID, nil, err)
	}

	return order, nil
}
