package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/app/lifecycle"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// FermentationJob periodically evaluates the time-gated policy for
// fermented orders. It is the only automated component allowed to propose
// transitions, and even then only forward, never terminal: ready is an
// absorbing state because pickup cannot be inferred from a clock.
type FermentationJob struct {
	orders   interfaces.OrderRepository
	engine   *lifecycle.Engine
	cfg      domain.FermentationConfig
	interval time.Duration
	cron     *cron.Cron
	logger   logger.Logger
}

func NewFermentationJob(
	orders interfaces.OrderRepository,
	engine *lifecycle.Engine,
	cfg domain.FermentationConfig,
	interval time.Duration,
	lgr logger.Logger,
) *FermentationJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &FermentationJob{
		orders:   orders,
		engine:   engine,
		cfg:      cfg,
		interval: interval,
		cron:     cron.New(),
		logger:   lgr,
	}
}

func (j *FermentationJob) Start() error {
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.interval)
		defer cancel()

		if err := j.Sweep(ctx, time.Now().UTC()); err != nil {
			j.logger.Error("fermentation_sweep_failed", "Fermentation sweep failed", "", nil, err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("job_started", "Fermentation evaluator started", "", map[string]interface{}{
		"interval": j.interval.String(),
	})
	return nil
}

func (j *FermentationJob) Stop() {
	j.cron.Stop()
}

// Sweep evaluates every active fermented order. The evaluation is a pure
// function of elapsed time, so repeated or replayed sweeps converge on the
// same state.
func (j *FermentationJob) Sweep(ctx context.Context, now time.Time) error {
	orders, err := j.orders.List(ctx, interfaces.OrderFilter{
		FermentedOnly: true,
		Statuses: []domain.Status{
			domain.StatusPendingPayment,
			domain.StatusPreparing,
			domain.StatusCooking,
		},
	})
	if err != nil {
		return err
	}

	for _, order := range orders {
		if order.FermentationStart == nil {
			if err := j.repairFermentationStart(ctx, order); err != nil {
				j.logger.Error("fermentation_repair_failed", "Failed to set fermentation start", order.ID, nil, err)
				continue
			}
		}

		proposed, ok := domain.EvaluateFermentation(order, j.cfg, now)
		if !ok {
			continue
		}

		if _, err := j.engine.Propose(ctx, order.ID, proposed, domain.ActorMonitor); err != nil {
			// Проигранная гонка не страшна: следующий sweep сойдется
			if errors.Is(err, domain.ErrStaleWriteConflict) || errors.Is(err, domain.ErrLockedOrder) {
				continue
			}
			j.logger.Error("fermentation_advance_failed", "Policy transition failed", order.ID, map[string]interface{}{
				"proposed": string(proposed),
			}, err)
		} else {
			j.logger.Info("fermentation_advanced", fmt.Sprintf("Order %s auto-advanced to %s (%.1f%%)", order.ID, proposed, j.cfg.Progress(*order.FermentationStart, now)), order.ID, nil)
		}
	}

	return nil
}

// repairFermentationStart backfills the start stamp from the creation time
// exactly once; the value is never changed afterwards.
func (j *FermentationJob) repairFermentationStart(ctx context.Context, order *domain.Order) error {
	next := order.Clone()
	start := order.CreatedAt
	next.FermentationStart = &start

	err := j.orders.UpdateCAS(ctx, next, order.Version)
	if err == nil {
		order.FermentationStart = &start
		order.Version = next.Version
	}
	if errors.Is(err, domain.ErrStaleWriteConflict) {
		// Кто-то успел раньше, возьмем значение на следующем проходе
		return nil
	}
	return err
}
