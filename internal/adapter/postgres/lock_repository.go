package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

type lockRepository struct {
	db DB
}

func NewLockRepository(db DB) interfaces.LockRepository {
	return &lockRepository{db: db}
}

// Lock inserts a lock entry for the order id. ON CONFLICT DO NOTHING makes
// repeated locking of the same id a no-op, so replayed terminal events
// cannot corrupt the registry.
func (r *lockRepository) Lock(ctx context.Context, id string, reason domain.LockReason) error {
	query := `
		INSERT INTO order_locks (order_id, reason, locked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, id, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	return nil
}

// Unlock removes the lock entry and records who did it. This is the only
// path by which a terminal order becomes visible again, reserved for
// correcting a mis-marked completion.
func (r *lockRepository) Unlock(ctx context.Context, id string, unlockedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM order_locks WHERE order_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to unlock order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	auditQuery := `
		INSERT INTO lock_audit (order_id, action, operator, occurred_at)
		VALUES ($1, 'unlock', $2, $3)
	`
	if _, err := tx.Exec(ctx, auditQuery, id, unlockedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record unlock: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *lockRepository) IsLocked(ctx context.Context, id string) (bool, error) {
	var locked bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM order_locks WHERE order_id = $1)`, id).Scan(&locked)
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	return locked, nil
}

func (r *lockRepository) ListLocked(ctx context.Context) (map[string]domain.LockEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT order_id, reason, locked_at FROM order_locks`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locks: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]domain.LockEntry)
	for rows.Next() {
		var entry domain.LockEntry
		if err := rows.Scan(&entry.OrderID, &entry.Reason, &entry.LockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lock entry: %w", err)
		}
		locked[entry.OrderID] = entry
	}
	return locked, rows.Err()
}
