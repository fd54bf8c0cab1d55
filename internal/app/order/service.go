package order

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// Service is the customer-facing side: order submission and read-only
// tracking of an order's progress.
type Service struct {
	repo         interfaces.OrderRepository
	publisher    interfaces.MessagePublisher
	logger       logger.Logger
	fermentation domain.FermentationConfig
}

func NewService(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, lgr logger.Logger, fermentation domain.FermentationConfig) *Service {
	return &Service{
		repo:         repo,
		publisher:    publisher,
		logger:       lgr,
		fermentation: fermentation,
	}
}

func (s *Service) SubmitOrder(ctx context.Context, cmd interfaces.SubmitOrderCommand) (*domain.Order, error) {
	// 1. Преобразование команды в доменную модель
	items := make([]domain.OrderItem, len(cmd.Items))
	fermented := false
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		if item.Fermented {
			fermented = true
		}
	}

	order, err := domain.NewOrder(cmd.CustomerName, cmd.CustomerPhone, cmd.CustomerEmail, items, fermented, time.Now().UTC())
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	order.Notes = cmd.Notes

	// 2. Генерация человекочитаемого номера заказа
	id, err := s.repo.GenerateOrderID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order id: %w", err)
	}
	order.ID = id

	// 3. Сохранение в БД
	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", order.ID, nil, err)
		return nil, err
	}
	s.logger.Debug("order_received", "Order created in DB", order.ID, map[string]interface{}{
		"fermented": order.IsFermented,
		"total":     order.TotalAmount,
	})

	// 4. Рассылка события и запроса на проверку оплаты.
	// Ошибки публикации не откатывают заказ: шина - только подсказка
	if err := s.publisher.PublishOrderEvent(ctx, interfaces.OrderEventMessage{
		Kind:      interfaces.EventOrderCreated,
		OrderID:   order.ID,
		NewStatus: order.Status,
		Actor:     domain.ActorCustomer,
		Timestamp: order.CreatedAt,
	}); err != nil {
		s.logger.Error("publish_failed", "Failed to broadcast order creation", order.ID, nil, err)
	}

	if err := s.publisher.PublishNotification(ctx, interfaces.NotificationMessage{
		Kind:          interfaces.NotifyPaymentVerificationRequested,
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: order.CustomerEmail,
		Message:       fmt.Sprintf("Payment verification requested for order %s (%.2f)", order.ID, order.TotalAmount),
		Timestamp:     order.CreatedAt,
	}); err != nil {
		s.logger.Error("publish_failed", "Failed to request payment verification", order.ID, nil, err)
	}

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*interfaces.OrderView, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &interfaces.OrderView{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		IsFermented:   order.IsFermented,
		AdminAlert:    order.AdminAlert,
		UpdatedAt:     order.UpdatedAt,
	}

	if order.IsFermented && order.FermentationStart != nil {
		pct := s.fermentation.Progress(*order.FermentationStart, time.Now().UTC())
		view.FermentationPct = &pct

		if !order.Status.IsTerminal() && order.Status != domain.StatusReady {
			est := order.FermentationStart.Add(s.fermentation.Duration)
			view.EstimatedCompletion = &est
		}
	}

	return view, nil
}

// GetHistory returns the order's timeline, oldest stage first. The timeline
// is append-once, so this is a faithful record of when each stage was
// entered.
func (s *Service) GetHistory(ctx context.Context, id string) ([]interfaces.TimelineEntry, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := make([]interfaces.TimelineEntry, 0, len(order.Timeline))
	for stage, at := range order.Timeline {
		entries = append(entries, interfaces.TimelineEntry{Stage: stage, EnteredAt: at})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EnteredAt.Before(entries[j].EnteredAt)
	})

	return entries, nil
}
