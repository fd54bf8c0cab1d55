package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// RecoveryJob repairs the two-phase terminal write: an order stored as
// completed or cancelled whose lock write was lost gets its lock entry
// re-created, and the removal event is re-broadcast so stale views purge
// it. It also archives locked orders past the retention window; history is
// kept, the order just leaves the active store.
type RecoveryJob struct {
	orders    interfaces.OrderRepository
	locks     interfaces.LockRepository
	publisher interfaces.MessagePublisher
	retention time.Duration
	interval  time.Duration
	cron      *cron.Cron
	logger    logger.Logger
}

func NewRecoveryJob(
	orders interfaces.OrderRepository,
	locks interfaces.LockRepository,
	publisher interfaces.MessagePublisher,
	retention time.Duration,
	interval time.Duration,
	lgr logger.Logger,
) *RecoveryJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RecoveryJob{
		orders:    orders,
		locks:     locks,
		publisher: publisher,
		retention: retention,
		interval:  interval,
		cron:      cron.New(),
		logger:    lgr,
	}
}

func (j *RecoveryJob) Start() error {
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.interval)
		defer cancel()

		if err := j.Sweep(ctx, time.Now().UTC()); err != nil {
			j.logger.Error("recovery_sweep_failed", "Recovery sweep failed", "", nil, err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("job_started", "Recovery sweep started", "", map[string]interface{}{
		"interval":  j.interval.String(),
		"retention": j.retention.String(),
	})
	return nil
}

func (j *RecoveryJob) Stop() {
	j.cron.Stop()
}

func (j *RecoveryJob) Sweep(ctx context.Context, now time.Time) error {
	orders, err := j.orders.List(ctx, interfaces.OrderFilter{
		Statuses: []domain.Status{domain.StatusCompleted, domain.StatusCancelled},
	})
	if err != nil {
		return err
	}

	locked, err := j.locks.ListLocked(ctx)
	if err != nil {
		return err
	}

	for _, order := range orders {
		if _, ok := locked[order.ID]; !ok {
			if err := j.repairLock(ctx, order, now); err != nil {
				j.logger.Error("lock_repair_failed", "Failed to repair missing lock", order.ID, nil, err)
				continue
			}
		}

		if j.retention > 0 && now.Sub(order.LastStatusChange) > j.retention {
			if err := j.orders.Archive(ctx, order.ID, now); err != nil {
				j.logger.Error("archive_failed", "Failed to archive order", order.ID, nil, err)
			} else {
				j.logger.Info("order_archived", fmt.Sprintf("Order %s archived after retention window", order.ID), order.ID, nil)
			}
		}
	}

	return nil
}

func (j *RecoveryJob) repairLock(ctx context.Context, order *domain.Order, now time.Time) error {
	reason, ok := domain.LockReasonFor(order.Status)
	if !ok {
		return nil
	}

	if err := j.locks.Lock(ctx, order.ID, reason); err != nil {
		return err
	}

	j.logger.Warn("lock_repaired", fmt.Sprintf("Order %s was %s without a lock entry, repaired", order.ID, order.Status), order.ID, nil)

	return j.publisher.PublishOrderEvent(ctx, interfaces.OrderEventMessage{
		Kind:      interfaces.EventOrderRemoved,
		OrderID:   order.ID,
		NewStatus: order.Status,
		Actor:     domain.ActorMonitor,
		Timestamp: now,
	})
}
