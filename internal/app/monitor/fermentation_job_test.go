package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanbite/ordersync/internal/app/lifecycle"
	"github.com/cleanbite/ordersync/internal/app/monitor"
	"github.com/cleanbite/ordersync/internal/domain"
)

func newFermentationJob(store *memStore) *monitor.FermentationJob {
	engine := lifecycle.NewEngine(store, store, &recordingActivity{}, &recordingPublisher{}, nopLogger{}, 3)
	return monitor.NewFermentationJob(store, engine, domain.DefaultFermentationConfig(), time.Minute, nopLogger{})
}

func fermentedOrder(t *testing.T, id string, status domain.Status, start time.Time) *domain.Order {
	t.Helper()
	order := makeOrder(t, id, status, true, start)
	order.FermentationStart = &start
	return order
}

func TestFermentationJob_Sweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("should advance early-phase orders to cooking", func(t *testing.T) {
		// 5% от 24 часов = 72 минуты
		store := newMemStore(fermentedOrder(t, "CB-1", domain.StatusPreparing, base))
		job := newFermentationJob(store)

		require.NoError(t, job.Sweep(ctx, base.Add(80*time.Minute)))

		assert.Equal(t, domain.StatusCooking, store.stored("CB-1").Status)
	})

	t.Run("should advance matured orders to ready but never further", func(t *testing.T) {
		store := newMemStore(fermentedOrder(t, "CB-1", domain.StatusCooking, base))
		job := newFermentationJob(store)

		require.NoError(t, job.Sweep(ctx, base.Add(24*time.Hour)))
		assert.Equal(t, domain.StatusReady, store.stored("CB-1").Status)

		// Заказ созрел давно, но ready - поглощающее состояние для политики
		require.NoError(t, job.Sweep(ctx, base.Add(72*time.Hour)))
		assert.Equal(t, domain.StatusReady, store.stored("CB-1").Status)
	})

	t.Run("should converge over repeated sweeps at the same instant", func(t *testing.T) {
		store := newMemStore(fermentedOrder(t, "CB-1", domain.StatusPreparing, base))
		job := newFermentationJob(store)

		at := base.Add(2 * time.Hour)
		for i := 0; i < 5; i++ {
			require.NoError(t, job.Sweep(ctx, at))
		}

		stored := store.stored("CB-1")
		assert.Equal(t, domain.StatusCooking, stored.Status)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("should skip non-fermented orders entirely", func(t *testing.T) {
		store := newMemStore(makeOrder(t, "CB-1", domain.StatusPreparing, false, base))
		job := newFermentationJob(store)

		require.NoError(t, job.Sweep(ctx, base.Add(48*time.Hour)))

		assert.Equal(t, domain.StatusPreparing, store.stored("CB-1").Status)
	})

	t.Run("should skip locked orders without failing the sweep", func(t *testing.T) {
		store := newMemStore(
			fermentedOrder(t, "CB-1", domain.StatusCooking, base),
			fermentedOrder(t, "CB-2", domain.StatusCooking, base),
		)
		require.NoError(t, store.Lock(ctx, "CB-1", domain.LockReasonCancelled))
		job := newFermentationJob(store)

		require.NoError(t, job.Sweep(ctx, base.Add(24*time.Hour)))

		assert.Equal(t, domain.StatusCooking, store.stored("CB-1").Status)
		assert.Equal(t, domain.StatusReady, store.stored("CB-2").Status)
	})

	t.Run("should backfill a missing fermentation start from creation time", func(t *testing.T) {
		order := makeOrder(t, "CB-1", domain.StatusPreparing, true, base)
		order.FermentationStart = nil
		store := newMemStore(order)
		job := newFermentationJob(store)

		require.NoError(t, job.Sweep(ctx, base.Add(3*time.Hour)))

		stored := store.stored("CB-1")
		require.NotNil(t, stored.FermentationStart)
		assert.Equal(t, base, *stored.FermentationStart)
		// Отсчет пошел от created_at, порог раннего сдвига уже пройден
		assert.Equal(t, domain.StatusCooking, stored.Status)
	})
}
