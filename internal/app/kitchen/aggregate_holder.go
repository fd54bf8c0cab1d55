package kitchen

import (
	"sync"

	"github.com/cleanbite/ordersync/internal/domain"
)

// atomicAggregate guards the swap of the derived view. Readers get the
// whole snapshot; partial updates are never visible.
type atomicAggregate struct {
	mu  sync.RWMutex
	agg *domain.KitchenAggregate
}

func (a *atomicAggregate) store(agg *domain.KitchenAggregate) {
	a.mu.Lock()
	a.agg = agg
	a.mu.Unlock()
}

func (a *atomicAggregate) load() *domain.KitchenAggregate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.agg
}
