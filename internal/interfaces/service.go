package interfaces

import (
	"context"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
)

// Команды для сервисов
type SubmitOrderCommand struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Items         []SubmitOrderItemCommand
	Notes         *string
}

type SubmitOrderItemCommand struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
	Fermented bool
}

// Интерфейсы Сервисов (Business Logic)
type OrderService interface {
	SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*OrderView, error)
	GetHistory(ctx context.Context, id string) ([]TimelineEntry, error)
}

type KitchenService interface {
	Start(ctx context.Context)
	Resync(ctx context.Context) error
	Aggregate() *domain.KitchenAggregate
	ProposeStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error)
}

type AdminService interface {
	VerifyPayment(ctx context.Context, orderID string) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error)
	Cancel(ctx context.Context, orderID string) (*domain.Order, error)
	Unlock(ctx context.Context, orderID string, operator string) error
	Activity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
}

// Ответы для отображения
type OrderView struct {
	OrderID             string
	Status              domain.Status
	PaymentStatus       domain.PaymentStatus
	TotalAmount         float64
	IsFermented         bool
	FermentationPct     *float64
	AdminAlert          *string
	UpdatedAt           time.Time
	EstimatedCompletion *time.Time
}

type TimelineEntry struct {
	Stage     domain.Status
	EnteredAt time.Time
}
