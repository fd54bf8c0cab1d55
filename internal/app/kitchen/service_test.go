package kitchen_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanbite/ordersync/internal/app/kitchen"
	"github.com/cleanbite/ordersync/internal/app/lifecycle"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

type memStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	locks  map[string]domain.LockEntry
}

func newMemStore(orders ...*domain.Order) *memStore {
	s := &memStore{
		orders: make(map[string]*domain.Order),
		locks:  make(map[string]domain.LockEntry),
	}
	for _, o := range orders {
		s.orders[o.ID] = o.Clone()
	}
	return s
}

func (s *memStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *memStore) List(_ context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if o.ArchivedAt != nil && !filter.IncludeArchived {
			continue
		}
		out = append(out, o.Clone())
	}
	return out, nil
}

func (s *memStore) UpdateCAS(_ context.Context, order *domain.Order, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrStaleWriteConflict
	}
	order.Version = expectedVersion + 1
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *memStore) SetAdminAlert(_ context.Context, id string, alert string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.AdminAlert = &alert
	}
	return nil
}

func (s *memStore) Archive(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.ArchivedAt = &at
	}
	return nil
}

func (s *memStore) GenerateOrderID(_ context.Context) (string, error) {
	return "CB-20250830-001", nil
}

func (s *memStore) Lock(_ context.Context, id string, reason domain.LockReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[id]; !ok {
		s.locks[id] = domain.LockEntry{OrderID: id, Reason: reason, LockedAt: time.Now().UTC()}
	}
	return nil
}

func (s *memStore) Unlock(_ context.Context, id string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
	return nil
}

func (s *memStore) IsLocked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locks[id]
	return ok, nil
}

func (s *memStore) ListLocked(_ context.Context) (map[string]domain.LockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.LockEntry, len(s.locks))
	for id, e := range s.locks {
		out[id] = e
	}
	return out, nil
}

type nopActivity struct{}

func (nopActivity) Append(_ context.Context, _ domain.ActivityEntry) error { return nil }
func (nopActivity) ListRecent(_ context.Context, _ int) ([]domain.ActivityEntry, error) {
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderEvent(_ context.Context, _ interfaces.OrderEventMessage) error {
	return nil
}
func (nopPublisher) PublishNotification(_ context.Context, _ interfaces.NotificationMessage) error {
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(_, _, _ string, _ map[string]interface{})           {}
func (nopLogger) Debug(_, _, _ string, _ map[string]interface{})          {}
func (nopLogger) Warn(_, _, _ string, _ map[string]interface{})           {}
func (nopLogger) Error(_, _, _ string, _ map[string]interface{}, _ error) {}

func activeOrder(t *testing.T, id string, status domain.Status) *domain.Order {
	t.Helper()

	now := time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC)
	order, err := domain.NewOrder("Amara Eze", "", "amara@example.com", []domain.OrderItem{
		{ProductID: "mango-lassi", Name: "Mango Lassi 330ml", Quantity: 1, UnitPrice: 4.20},
	}, false, now)
	require.NoError(t, err)

	order.ID = id
	order.Status = status
	return order
}

func newKitchen(store *memStore) *kitchen.Service {
	engine := lifecycle.NewEngine(store, store, nopActivity{}, nopPublisher{}, nopLogger{}, 3)
	return kitchen.NewService(store, store, engine, nopLogger{}, time.Second)
}

func TestService_Resync(t *testing.T) {
	ctx := context.Background()

	t.Run("should build the aggregate from the store", func(t *testing.T) {
		store := newMemStore(
			activeOrder(t, "CB-1", domain.StatusPreparing),
			activeOrder(t, "CB-2", domain.StatusCooking),
			activeOrder(t, "CB-3", domain.StatusCompleted),
		)
		svc := newKitchen(store)

		require.Nil(t, svc.Aggregate())
		require.NoError(t, svc.Resync(ctx))

		agg := svc.Aggregate()
		require.NotNil(t, agg)
		assert.Equal(t, 2, agg.TotalActive)
		assert.Equal(t, 1, agg.Counts[domain.StatusPreparing])
		assert.Equal(t, 1, agg.Counts[domain.StatusCooking])
	})

	t.Run("should drop locked orders from the view", func(t *testing.T) {
		store := newMemStore(
			activeOrder(t, "CB-1", domain.StatusCooking),
			activeOrder(t, "CB-2", domain.StatusCooking),
		)
		require.NoError(t, store.Lock(ctx, "CB-1", domain.LockReasonCompleted))
		svc := newKitchen(store)

		require.NoError(t, svc.Resync(ctx))

		agg := svc.Aggregate()
		assert.Equal(t, 1, agg.TotalActive)
		assert.Equal(t, "CB-2", agg.Active[0].ID)
	})

	t.Run("should rebuild the same view with or without bus hints", func(t *testing.T) {
		store := newMemStore(
			activeOrder(t, "CB-1", domain.StatusPreparing),
			activeOrder(t, "CB-2", domain.StatusReady),
		)

		// Подписчик, который слышал событие
		hinted := newKitchen(store)
		require.NoError(t, hinted.HandleOrderEvent(ctx, interfaces.OrderEventMessage{
			Kind:    interfaces.EventStatusChanged,
			OrderID: "CB-2",
		}))

		// Подписчик, который пропустил все и дождался таймера
		silent := newKitchen(store)
		require.NoError(t, silent.Resync(ctx))

		assert.Equal(t, hinted.Aggregate().Counts, silent.Aggregate().Counts)
		assert.Equal(t, hinted.Aggregate().TotalActive, silent.Aggregate().TotalActive)
	})
}

func TestService_ProposeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("should advance the order and refresh the view", func(t *testing.T) {
		store := newMemStore(activeOrder(t, "CB-1", domain.StatusPreparing))
		svc := newKitchen(store)
		require.NoError(t, svc.Resync(ctx))

		updated, err := svc.ProposeStatus(ctx, "CB-1", domain.StatusCooking)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCooking, updated.Status)
		assert.Equal(t, 1, svc.Aggregate().Counts[domain.StatusCooking])
		assert.Zero(t, svc.Aggregate().Counts[domain.StatusPreparing])
	})

	t.Run("should reject work on an order completed elsewhere", func(t *testing.T) {
		store := newMemStore(activeOrder(t, "CB-1", domain.StatusReady))
		svc := newKitchen(store)

		// Админ завершает заказ, лок встает
		engine := lifecycle.NewEngine(store, store, nopActivity{}, nopPublisher{}, nopLogger{}, 3)
		_, err := engine.Propose(ctx, "CB-1", domain.StatusCompleted, domain.ActorAdmin)
		require.NoError(t, err)

		_, err = svc.ProposeStatus(ctx, "CB-1", domain.StatusCooking)

		assert.ErrorIs(t, err, domain.ErrLockedOrder)

		require.NoError(t, svc.Resync(ctx))
		assert.Zero(t, svc.Aggregate().TotalActive)
	})
}
