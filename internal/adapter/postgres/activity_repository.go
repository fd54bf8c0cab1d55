package postgres

import (
	"context"
	"fmt"

	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

type activityRepository struct {
	db  DB
	max int
}

func NewActivityRepository(db DB, maxEntries int) interfaces.ActivityRepository {
	return &activityRepository{db: db, max: maxEntries}
}

// Append inserts the entry and trims the table to the most recent N rows,
// mirroring the bounded in-memory feed so the durable log never grows
// without bound.
func (r *activityRepository) Append(ctx context.Context, entry domain.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (order_id, type, message, customer_name, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query,
		entry.OrderID, entry.Type, entry.Message, entry.CustomerName, entry.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	trimQuery := `
		DELETE FROM activity_log
		WHERE id NOT IN (SELECT id FROM activity_log ORDER BY id DESC LIMIT $1)
	`
	if _, err := r.db.Exec(ctx, trimQuery, r.max); err != nil {
		return fmt.Errorf("failed to trim activity log: %w", err)
	}

	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 || limit > r.max {
		limit = r.max
	}

	query := `
		SELECT id, order_id, type, message, customer_name, occurred_at
		FROM activity_log
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var entry domain.ActivityEntry
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Type, &entry.Message, &entry.CustomerName, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
