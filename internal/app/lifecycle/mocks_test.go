package lifecycle_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// fakeOrderRepo is an in-memory order store with the same compare-and-swap
// contract as the postgres adapter. beforeUpdate lets a test inject a
// competing write between the engine's read and its write.
type fakeOrderRepo struct {
	mu           sync.Mutex
	orders       map[string]*domain.Order
	beforeUpdate func(repo *fakeOrderRepo)
	updateCalls  int
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o.Clone()
	}
	return repo
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return stored.Clone(), nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.Order
	for _, stored := range r.orders {
		if stored.ArchivedAt != nil && !filter.IncludeArchived {
			continue
		}
		if filter.FermentedOnly && !stored.IsFermented {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if stored.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, stored.Clone())
	}
	return result, nil
}

func (r *fakeOrderRepo) UpdateCAS(_ context.Context, order *domain.Order, expectedVersion int64) error {
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.updateCalls++

	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrStaleWriteConflict
	}

	order.Version = expectedVersion + 1
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *fakeOrderRepo) SetAdminAlert(_ context.Context, id string, alert string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.AdminAlert = &alert
	return nil
}

func (r *fakeOrderRepo) Archive(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.ArchivedAt = &at
	return nil
}

func (r *fakeOrderRepo) GenerateOrderID(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("CB-20250830-%03d", len(r.orders)+1), nil
}

// stored returns the persisted copy, bypassing clone semantics, for asserts.
func (r *fakeOrderRepo) stored(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id]
}

type fakeLockRepo struct {
	mu       sync.Mutex
	locks    map[string]domain.LockEntry
	failLock error
	unlocks  []string
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locks: make(map[string]domain.LockEntry)}
}

func (r *fakeLockRepo) Lock(_ context.Context, id string, reason domain.LockReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLock != nil {
		return r.failLock
	}
	if _, ok := r.locks[id]; ok {
		return nil
	}
	r.locks[id] = domain.LockEntry{OrderID: id, Reason: reason, LockedAt: time.Now().UTC()}
	return nil
}

func (r *fakeLockRepo) Unlock(_ context.Context, id string, unlockedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, id)
	r.unlocks = append(r.unlocks, unlockedBy)
	return nil
}

func (r *fakeLockRepo) IsLocked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.locks[id]
	return ok, nil
}

func (r *fakeLockRepo) ListLocked(_ context.Context) (map[string]domain.LockEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.LockEntry, len(r.locks))
	for id, entry := range r.locks {
		out[id] = entry
	}
	return out, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *fakeActivityRepo) Append(_ context.Context, entry domain.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]domain.ActivityEntry, limit)
	copy(out, r.entries[len(r.entries)-limit:])
	return out, nil
}

type fakePublisher struct {
	mu            sync.Mutex
	events        []interfaces.OrderEventMessage
	notifications []interfaces.NotificationMessage
	failEvents    error
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, msg interfaces.OrderEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failEvents != nil {
		return p.failEvents
	}
	p.events = append(p.events, msg)
	return nil
}

func (p *fakePublisher) PublishNotification(_ context.Context, msg interfaces.NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, msg)
	return nil
}

func (p *fakePublisher) eventKinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]string, len(p.events))
	for i, e := range p.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type nopLogger struct{}

func (nopLogger) Info(_, _, _ string, _ map[string]interface{})           {}
func (nopLogger) Debug(_, _, _ string, _ map[string]interface{})          {}
func (nopLogger) Warn(_, _, _ string, _ map[string]interface{})           {}
func (nopLogger) Error(_, _, _ string, _ map[string]interface{}, _ error) {}
