package domain

import "errors"

var (
	// ErrLockedOrder is returned for any mutation attempted on an order
	// whose id is present in the lock registry.
	ErrLockedOrder = errors.New("order is locked")

	// ErrRegressionRejected is returned when a proposed status is earlier
	// in the progression than the current one.
	ErrRegressionRejected = errors.New("backward status transition rejected")

	// ErrStaleWriteConflict is returned when a compare-and-swap write loses
	// a race against a concurrent actor. Callers re-read and retry.
	ErrStaleWriteConflict = errors.New("stale write conflict")

	// ErrPolicyInvariantViolation marks a programming error: an automated
	// component asked for a transition only a human may perform.
	ErrPolicyInvariantViolation = errors.New("policy invariant violation")

	// ErrAdminRequired is returned when a terminal transition is proposed
	// by an actor without administrative authority.
	ErrAdminRequired = errors.New("administrative authority required")

	// ErrOrderNotFound is returned by the store when the id is unknown.
	ErrOrderNotFound = errors.New("order not found")

	ErrInvalidStatus = errors.New("invalid status")
)

// ReasonCode maps a rejection error to the structured code surfaced to the
// initiating actor, so displays can re-render with an explanation.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrLockedOrder):
		return "LockedOrder"
	case errors.Is(err, ErrRegressionRejected):
		return "RegressionRejected"
	case errors.Is(err, ErrStaleWriteConflict):
		return "StaleWriteConflict"
	case errors.Is(err, ErrPolicyInvariantViolation):
		return "PolicyInvariantViolation"
	case errors.Is(err, ErrAdminRequired):
		return "AdminRequired"
	case errors.Is(err, ErrOrderNotFound):
		return "NotFound"
	default:
		return "Internal"
	}
}
