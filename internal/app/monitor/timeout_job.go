package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/config"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// TimeoutJob is the advisory dwell-time sweep. It deliberately has no
// reference to the lifecycle engine: on breach it only annotates the order
// and appends an activity entry for a human to act on. This separation is
// what keeps monitoring from ever mutating lifecycle state.
type TimeoutJob struct {
	orders   interfaces.OrderRepository
	activity interfaces.ActivityRepository
	timeouts config.TimeoutConfig
	ferment  domain.FermentationConfig
	cron     *cron.Cron
	logger   logger.Logger
}

func NewTimeoutJob(
	orders interfaces.OrderRepository,
	activity interfaces.ActivityRepository,
	timeouts config.TimeoutConfig,
	ferment domain.FermentationConfig,
	lgr logger.Logger,
) *TimeoutJob {
	return &TimeoutJob{
		orders:   orders,
		activity: activity,
		timeouts: timeouts,
		ferment:  ferment,
		cron:     cron.New(),
		logger:   lgr,
	}
}

func (j *TimeoutJob) Start() error {
	interval := time.Duration(j.timeouts.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		if err := j.Sweep(ctx, time.Now().UTC()); err != nil {
			j.logger.Error("timeout_sweep_failed", "Timeout sweep failed", "", nil, err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("job_started", "Timeout monitor started", "", map[string]interface{}{
		"interval": interval.String(),
	})
	return nil
}

func (j *TimeoutJob) Stop() {
	j.cron.Stop()
}

// Sweep flags orders that dwelled too long in their current status.
func (j *TimeoutJob) Sweep(ctx context.Context, now time.Time) error {
	orders, err := j.orders.List(ctx, interfaces.OrderFilter{
		Statuses: []domain.Status{
			domain.StatusPendingPayment,
			domain.StatusPreparing,
			domain.StatusCooking,
			domain.StatusReady,
		},
	})
	if err != nil {
		return err
	}

	for _, order := range orders {
		threshold, ok := j.Threshold(order)
		if !ok {
			continue
		}

		dwell := now.Sub(order.LastStatusChange)
		if dwell <= threshold {
			continue
		}

		// Текст не включает dwell: повторный sweep той же просрочки
		// не перезаписывает алерт и не засоряет журнал
		alert := fmt.Sprintf("stuck in %s beyond %s", order.Status, threshold)
		if order.AdminAlert != nil && *order.AdminAlert == alert {
			continue
		}

		if err := j.orders.SetAdminAlert(ctx, order.ID, alert); err != nil {
			j.logger.Error("alert_write_failed", "Failed to set admin alert", order.ID, nil, err)
			continue
		}

		entry := domain.ActivityEntry{
			OrderID:      order.ID,
			Type:         "timeout",
			Message:      fmt.Sprintf("Order %s %s", order.ID, alert),
			CustomerName: order.CustomerName,
			Timestamp:    now,
		}
		if err := j.activity.Append(ctx, entry); err != nil {
			j.logger.Error("activity_append_failed", "Failed to record timeout", order.ID, nil, err)
		}

		j.logger.Warn("dwell_exceeded", fmt.Sprintf("Order %s %s", order.ID, alert), order.ID, map[string]interface{}{
			"status":  string(order.Status),
			"dwell":   dwell.String(),
			"limit":   threshold.String(),
			"ferment": order.IsFermented,
		})
	}

	return nil
}

// Threshold returns the maximum dwell time for the order's current status
// and category. For fermented goods the cooking limit is derived from the
// fermentation duration plus a grace period, and preparing has no limit of
// its own because the policy moves those orders along.
func (j *TimeoutJob) Threshold(order *domain.Order) (time.Duration, bool) {
	minutes := func(m int) (time.Duration, bool) {
		if m <= 0 {
			return 0, false
		}
		return time.Duration(m) * time.Minute, true
	}

	if order.IsFermented {
		switch order.Status {
		case domain.StatusPendingPayment:
			return minutes(j.timeouts.PendingPaymentMinutes)
		case domain.StatusCooking:
			grace, ok := minutes(j.timeouts.FermentedCookingGraceMin)
			if !ok {
				return 0, false
			}
			return j.ferment.Duration + grace, true
		case domain.StatusReady:
			return minutes(j.timeouts.FermentedReadyMinutes)
		default:
			return 0, false
		}
	}

	switch order.Status {
	case domain.StatusPendingPayment:
		return minutes(j.timeouts.PendingPaymentMinutes)
	case domain.StatusPreparing:
		return minutes(j.timeouts.PreparingMinutes)
	case domain.StatusCooking:
		return minutes(j.timeouts.CookingMinutes)
	case domain.StatusReady:
		return minutes(j.timeouts.ReadyMinutes)
	default:
		return 0, false
	}
}
