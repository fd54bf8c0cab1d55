package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, version, customer_name, customer_phone, customer_email,
	       total_amount, payment_status, status, is_fermented, fermentation_start,
	       timeline, last_status_change, admin_alert, notes, created_at, updated_at, archived_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	timeline, err := marshalTimeline(order.Timeline)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, version, customer_name, customer_phone, customer_email,
		                    total_amount, payment_status, status, is_fermented, fermentation_start,
		                    timeline, last_status_change, admin_alert, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.Exec(ctx, query,
		order.ID, order.Version, order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.TotalAmount, order.PaymentStatus, order.Status, order.IsFermented, order.FermentationStart,
		timeline, order.LastStatusChange, order.AdminAlert, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		itemQuery := `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err = tx.QueryRow(ctx, itemQuery,
			order.ID, order.Items[i].ProductID, order.Items[i].Name,
			order.Items[i].Quantity, order.Items[i].UnitPrice,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		order.Items[i].OrderID = order.ID
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []any

	if !filter.IncludeArchived {
		query += ` AND archived_at IS NULL`
	}
	if filter.FermentedOnly {
		query += ` AND is_fermented = true`
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		query += fmt.Sprintf(` AND status = ANY($%d)`, len(args))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}

// UpdateCAS persists the order guarded by the version counter. Losing the
// race is reported as domain.ErrStaleWriteConflict so the caller can
// re-read and converge.
func (r *orderRepository) UpdateCAS(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	timeline, err := marshalTimeline(order.Timeline)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET version = version + 1,
		    payment_status = $1, status = $2, fermentation_start = $3,
		    timeline = $4, last_status_change = $5, admin_alert = $6,
		    notes = $7, updated_at = $8
		WHERE id = $9 AND version = $10
	`
	tag, err := r.db.Exec(ctx, query,
		order.PaymentStatus, order.Status, order.FermentationStart,
		timeline, order.LastStatusChange, order.AdminAlert,
		order.Notes, order.UpdatedAt, order.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Либо заказ не существует, либо версия устарела
		var exists bool
		checkErr := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to check order existence: %w", checkErr)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrStaleWriteConflict
	}

	order.Version = expectedVersion + 1
	return nil
}

func (r *orderRepository) SetAdminAlert(ctx context.Context, id string, alert string) error {
	query := `UPDATE orders SET admin_alert = $1 WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, alert, id)
	if err != nil {
		return fmt.Errorf("failed to set admin alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Archive(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE orders SET archived_at = $1 WHERE id = $2 AND archived_at IS NULL`

	if _, err := r.db.Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to archive order: %w", err)
	}
	return nil
}

// GenerateOrderID produces a time-ordered, human-readable id like
// CB-20250831-003. The per-day sequence lives in its own row and is bumped
// with an atomic upsert, so concurrent submissions never draw the same
// number.
func (r *orderRepository) GenerateOrderID(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")

	query := `
		INSERT INTO order_id_counters (day, counter)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET counter = order_id_counters.counter + 1
		RETURNING counter
	`

	var seq int
	if err := r.db.QueryRow(ctx, query, day).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate order id: %w", err)
	}

	return fmt.Sprintf("CB-%s-%03d", day, seq), nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT id, order_id, product_id, name, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order    domain.Order
		timeline []byte
	)

	err := row.Scan(
		&order.ID, &order.Version, &order.CustomerName, &order.CustomerPhone, &order.CustomerEmail,
		&order.TotalAmount, &order.PaymentStatus, &order.Status, &order.IsFermented, &order.FermentationStart,
		&timeline, &order.LastStatusChange, &order.AdminAlert, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt, &order.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &order.Timeline); err != nil {
			return nil, fmt.Errorf("failed to decode timeline: %w", err)
		}
	}

	return &order, nil
}

func marshalTimeline(timeline map[domain.Status]time.Time) ([]byte, error) {
	data, err := json.Marshal(timeline)
	if err != nil {
		return nil, fmt.Errorf("failed to encode timeline: %w", err)
	}
	return data, nil
}
