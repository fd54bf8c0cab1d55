package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanbite/ordersync/internal/domain"
)

func TestBuildKitchenAggregate(t *testing.T) {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

	makeOrder := func(id string, status domain.Status, createdAt time.Time) *domain.Order {
		o := testOrder(t, false)
		o.ID = id
		o.Status = status
		o.CreatedAt = createdAt
		return o
	}

	t.Run("counts active orders per status", func(t *testing.T) {
		orders := []*domain.Order{
			makeOrder("CB-1", domain.StatusPreparing, now),
			makeOrder("CB-2", domain.StatusPreparing, now),
			makeOrder("CB-3", domain.StatusCooking, now),
		}

		agg := domain.BuildKitchenAggregate(orders, nil, now)

		assert.Equal(t, 2, agg.Counts[domain.StatusPreparing])
		assert.Equal(t, 1, agg.Counts[domain.StatusCooking])
		assert.Equal(t, 3, agg.TotalActive)
	})

	t.Run("filters locked ids before counting, whatever the cached status says", func(t *testing.T) {
		// Устаревшая копия: заказ все еще помечен cooking, но уже залочен
		stale := makeOrder("CB-1", domain.StatusCooking, now)
		orders := []*domain.Order{
			stale,
			makeOrder("CB-2", domain.StatusPreparing, now),
		}
		locked := map[string]domain.LockEntry{
			"CB-1": {OrderID: "CB-1", Reason: domain.LockReasonCompleted, LockedAt: now},
		}

		agg := domain.BuildKitchenAggregate(orders, locked, now)

		assert.Zero(t, agg.Counts[domain.StatusCooking])
		assert.Equal(t, 1, agg.TotalActive)
		assert.Equal(t, "CB-2", agg.Active[0].ID)
	})

	t.Run("excludes terminal and archived orders", func(t *testing.T) {
		archived := makeOrder("CB-3", domain.StatusPreparing, now)
		at := now
		archived.ArchivedAt = &at

		orders := []*domain.Order{
			makeOrder("CB-1", domain.StatusCompleted, now),
			makeOrder("CB-2", domain.StatusCancelled, now),
			archived,
		}

		agg := domain.BuildKitchenAggregate(orders, nil, now)

		assert.Zero(t, agg.TotalActive)
		assert.Empty(t, agg.Active)
	})

	t.Run("orders the queue by creation time", func(t *testing.T) {
		orders := []*domain.Order{
			makeOrder("CB-2", domain.StatusPreparing, now.Add(time.Minute)),
			makeOrder("CB-1", domain.StatusPreparing, now),
			makeOrder("CB-3", domain.StatusCooking, now.Add(2*time.Minute)),
		}

		agg := domain.BuildKitchenAggregate(orders, nil, now)

		require.Len(t, agg.Active, 3)
		assert.Equal(t, "CB-1", agg.Active[0].ID)
		assert.Equal(t, "CB-2", agg.Active[1].ID)
		assert.Equal(t, "CB-3", agg.Active[2].ID)
	})
}
