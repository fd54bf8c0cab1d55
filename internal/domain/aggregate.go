package domain

import (
	"sort"
	"time"
)

// KitchenAggregate is the derived kitchen view: per-status counts and the
// active queue. It is never stored durably; every resync recomputes it from
// the order store and the lock registry.
type KitchenAggregate struct {
	Counts      map[Status]int
	Active      []*Order
	TotalActive int
	RebuiltAt   time.Time
}

// BuildKitchenAggregate computes the kitchen view from a snapshot of orders
// and the set of locked ids. Locked ids are filtered out first, so a
// completed order can never contribute to active counts even if a stale
// cached copy still shows an earlier status.
func BuildKitchenAggregate(orders []*Order, locked map[string]LockEntry, now time.Time) *KitchenAggregate {
	agg := &KitchenAggregate{
		Counts:    make(map[Status]int),
		RebuiltAt: now,
	}

	for _, o := range orders {
		if _, isLocked := locked[o.ID]; isLocked {
			continue
		}
		if !o.IsActive() {
			continue
		}

		agg.Counts[o.Status]++
		agg.Active = append(agg.Active, o)
	}

	sort.Slice(agg.Active, func(i, j int) bool {
		return agg.Active[i].CreatedAt.Before(agg.Active[j].CreatedAt)
	})

	agg.TotalActive = len(agg.Active)
	return agg
}
