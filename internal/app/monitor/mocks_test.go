package monitor_test

import (
	"context"
	"sync"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// memStore backs both the order and lock repository interfaces for sweep
// tests, with the same compare-and-swap contract as the postgres adapter.
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
		if filter.FermentedOnly && !o.IsFermented {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if o.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
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
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.AdminAlert = &alert
	return nil
}

func (s *memStore) Archive(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.ArchivedAt = &at
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

// stored returns the persisted copy for asserts.
func (s *memStore) stored(id string) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *recordingActivity) Append(_ context.Context, entry domain.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingActivity) ListRecent(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return append([]domain.ActivityEntry(nil), r.entries[len(r.entries)-limit:]...), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []interfaces.OrderEventMessage
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, msg interfaces.OrderEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return nil
}

func (p *recordingPublisher) PublishNotification(_ context.Context, _ interfaces.NotificationMessage) error {
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(_, _, _ string, _ map[string]interface{})           {}
func (nopLogger) Debug(_, _, _ string, _ map[string]interface{})          {}
func (nopLogger) Warn(_, _, _ string, _ map[string]interface{})           {}
func (nopLogger) Error(_, _, _ string, _ map[string]interface{}, _ error) {}
