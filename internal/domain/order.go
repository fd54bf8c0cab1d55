package domain

import (
	"errors"
	"time"
)

// Order represents a CleanBite order. The authoritative copy lives in the
// order store; every actor process works on read-only cached copies and
// proposes changes through compare-and-swap writes keyed on Version.
type Order struct {
	ID                string
	Version           int64
	CustomerName      string
	CustomerPhone     string
	CustomerEmail     string
	Items             []OrderItem
	TotalAmount       float64
	PaymentStatus     PaymentStatus
	Status            Status
	IsFermented       bool
	FermentationStart *time.Time
	Timeline          map[Status]time.Time
	LastStatusChange  time.Time
	AdminAlert        *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ArchivedAt        *time.Time
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID        int
	OrderID   string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
}

// NewOrder creates a new order with business rules applied. Fermented
// orders get their fermentation start stamped from the creation time, once.
func NewOrder(customerName, phone, email string, items []OrderItem, fermented bool, now time.Time) (*Order, error) {
	order := &Order{
		CustomerName:     customerName,
		CustomerPhone:    phone,
		CustomerEmail:    email,
		Items:            items,
		PaymentStatus:    PaymentPending,
		Status:           StatusPendingPayment,
		IsFermented:      fermented,
		Timeline:         map[Status]time.Time{StatusPendingPayment: now},
		LastStatusChange: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if fermented {
		start := now
		order.FermentationStart = &start
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.CalculateTotal()

	return order, nil
}

// Validate applies business validation rules.
func (o *Order) Validate() error {
	if len(o.CustomerName) < 1 || len(o.CustomerName) > 100 {
		return errors.New("customer name must be 1-100 characters")
	}

	if o.CustomerPhone == "" && o.CustomerEmail == "" {
		return errors.New("customer phone or email is required")
	}

	if len(o.Items) < 1 || len(o.Items) > 20 {
		return errors.New("order must have 1-20 items")
	}

	for _, item := range o.Items {
		if len(item.Name) < 1 || len(item.Name) > 50 {
			return errors.New("item name must be 1-50 characters")
		}
		if item.Quantity < 1 || item.Quantity > 10 {
			return errors.New("item quantity must be 1-10")
		}
		if item.UnitPrice < 0.01 || item.UnitPrice > 999.99 {
			return errors.New("item price must be 0.01-999.99")
		}
	}

	return nil
}

// CalculateTotal calculates the total amount of the order.
func (o *Order) CalculateTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	o.TotalAmount = total
}

// Clone returns a deep copy. Transition works on copies so that a rejected
// proposal never leaves a half-mutated order in an actor's cache.
func (o *Order) Clone() *Order {
	clone := *o

	clone.Items = make([]OrderItem, len(o.Items))
	copy(clone.Items, o.Items)

	clone.Timeline = make(map[Status]time.Time, len(o.Timeline))
	for stage, ts := range o.Timeline {
		clone.Timeline[stage] = ts
	}

	if o.FermentationStart != nil {
		start := *o.FermentationStart
		clone.FermentationStart = &start
	}
	if o.AdminAlert != nil {
		alert := *o.AdminAlert
		clone.AdminAlert = &alert
	}
	if o.Notes != nil {
		notes := *o.Notes
		clone.Notes = &notes
	}
	if o.ArchivedAt != nil {
		at := *o.ArchivedAt
		clone.ArchivedAt = &at
	}

	return &clone
}

// StampTimeline records the first time a stage was entered. Entries are
// append-once: a stage that already has a timestamp is never overwritten.
func (o *Order) StampTimeline(stage Status, at time.Time) {
	if o.Timeline == nil {
		o.Timeline = make(map[Status]time.Time)
	}
	if _, ok := o.Timeline[stage]; !ok {
		o.Timeline[stage] = at
	}
}

// StageEnteredAt returns when the order first entered the given stage.
func (o *Order) StageEnteredAt(stage Status) (time.Time, bool) {
	ts, ok := o.Timeline[stage]
	return ts, ok
}

// IsActive reports whether the order should appear in active views.
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal() && o.ArchivedAt == nil
}
