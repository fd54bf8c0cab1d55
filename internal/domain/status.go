package domain

// Status is the lifecycle stage of an order.
type Status string

const (
	StatusPendingPayment Status = "pending-payment"
	StatusPreparing      Status = "preparing"
	StatusCooking        Status = "cooking"
	StatusReady          Status = "ready"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// statusOrder defines the total order used for regression checks.
// Cancelled sits outside the progression and is handled separately.
var statusOrder = map[Status]int{
	StatusPendingPayment: 0,
	StatusPreparing:      1,
	StatusCooking:        2,
	StatusReady:          3,
	StatusCompleted:      4,
}

// Index returns the position of the status in the forward progression,
// or -1 for cancelled and unknown statuses.
func (s Status) Index() int {
	if idx, ok := statusOrder[s]; ok {
		return idx
	}
	return -1
}

// IsTerminal reports whether the status ends the order lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether the status is one of the known lifecycle stages.
func (s Status) IsValid() bool {
	return s == StatusCancelled || s.Index() >= 0
}

// PaymentStatus tracks payment verification separately from the lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
)

// Actor identifies which process proposes a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorKitchen  Actor = "kitchen"
	ActorAdmin    Actor = "admin"
	ActorMonitor  Actor = "monitor"
)

// HasAdminAuthority reports whether the actor may perform terminal
// transitions. Kitchen and admin consoles are operated by humans; the
// monitor and the customer display are not.
func (a Actor) HasAdminAuthority() bool {
	return a == ActorKitchen || a == ActorAdmin
}
