package interfaces

import (
	"context"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
)

// OrderFilter narrows List results. Zero value means all non-archived orders.
type OrderFilter struct {
	Statuses        []domain.Status
	FermentedOnly   bool
	IncludeArchived bool
}

// Интерфейсы Репозиториев (Adapter/Postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)

	// UpdateCAS persists the order only if the stored version still equals
	// expectedVersion, bumping Version on success. Returns
	// domain.ErrStaleWriteConflict when a concurrent actor won the race.
	UpdateCAS(ctx context.Context, order *domain.Order, expectedVersion int64) error

	// SetAdminAlert writes the advisory annotation without touching the
	// lifecycle status or the version counter.
	SetAdminAlert(ctx context.Context, id string, alert string) error

	Archive(ctx context.Context, id string, at time.Time) error
	GenerateOrderID(ctx context.Context) (string, error)
}

type LockRepository interface {
	// Lock is idempotent: locking an already-locked id is a no-op.
	Lock(ctx context.Context, id string, reason domain.LockReason) error

	// Unlock removes a lock entry. Restricted to explicit administrative
	// action; every call is recorded in the audit trail.
	Unlock(ctx context.Context, id string, unlockedBy string) error

	IsLocked(ctx context.Context, id string) (bool, error)
	ListLocked(ctx context.Context) (map[string]domain.LockEntry, error)
}

type ActivityRepository interface {
	Append(ctx context.Context, entry domain.ActivityEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
}
