package order

import (
	"context"
	"fmt"
	"time"

	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// FeedListener maintains the customer display's local activity feed from
// broadcast events. The feed is derived, bounded and disposable; a restart
// simply starts it empty.
type FeedListener struct {
	feed *domain.ActivityFeed
}

func NewFeedListener(maxEntries int) *FeedListener {
	return &FeedListener{feed: domain.NewActivityFeed(maxEntries)}
}

func (l *FeedListener) HandleOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	var message string
	switch msg.Kind {
	case interfaces.EventOrderCreated:
		message = fmt.Sprintf("Order %s received", msg.OrderID)
	case interfaces.EventStatusChanged:
		message = fmt.Sprintf("Order %s is now %s", msg.OrderID, msg.NewStatus)
	case interfaces.EventOrderRemoved:
		message = fmt.Sprintf("Order %s closed (%s)", msg.OrderID, msg.NewStatus)
	case interfaces.EventOrderUnlocked:
		message = fmt.Sprintf("Order %s reopened by staff", msg.OrderID)
	default:
		return nil
	}

	l.feed.Add(domain.ActivityEntry{
		OrderID:   msg.OrderID,
		Type:      msg.Kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (l *FeedListener) Recent(limit int) []domain.ActivityEntry {
	return l.feed.Recent(limit)
}
