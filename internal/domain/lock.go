package domain

import "time"

// LockReason records why an order id was permanently locked.
type LockReason string

const (
	LockReasonCompleted LockReason = "completed"
	LockReasonCancelled LockReason = "cancelled"
)

// LockEntry marks an order as terminal. Its presence makes the order
// invisible to every active view, regardless of what a cached copy says.
// Entries are only ever removed by an explicit, logged administrative
// override.
type LockEntry struct {
	OrderID  string
	Reason   LockReason
	LockedAt time.Time
}

// LockReasonFor maps a terminal status to its lock reason.
func LockReasonFor(s Status) (LockReason, bool) {
	switch s {
	case StatusCompleted:
		return LockReasonCompleted, true
	case StatusCancelled:
		return LockReasonCancelled, true
	default:
		return "", false
	}
}
