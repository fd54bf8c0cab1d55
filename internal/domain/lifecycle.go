package domain

import "time"

// Transition validates a proposed status change and applies it to a copy of
// the order. It is a pure function: the input order is never mutated, the
// clock is passed in, and the lock registry is consulted by the caller.
//
// Rules, in order of evaluation:
//  1. locked orders reject everything;
//  2. re-applying the current status is an idempotent no-op;
//  3. terminal orders reject every other proposal, even when the lock entry
//     has not landed yet (the two-phase write repairs the lock, never the
//     status);
//  4. backward movement in the progression is rejected, except cancelled,
//     which is reachable from any non-terminal state;
//  5. completed (and cancelled) require administrative authority, and a
//     monitor proposing a terminal state is a programming error;
//  6. otherwise the status, last-change timestamp and the first-occurrence
//     timeline entry are set.
func Transition(o *Order, proposed Status, actor Actor, locked bool, now time.Time) (*Order, error) {
	if locked {
		return nil, ErrLockedOrder
	}

	if !proposed.IsValid() {
		return nil, ErrInvalidStatus
	}

	if proposed == o.Status {
		// Идемпотентное повторение - не ошибка
		return o.Clone(), nil
	}

	if o.Status.IsTerminal() {
		// Cancelled стоит вне прогрессии (Index -1), индексная проверка
		// ниже его не поймает
		return nil, ErrRegressionRejected
	}

	if proposed == StatusCancelled {
		if actor == ActorMonitor {
			return nil, ErrPolicyInvariantViolation
		}
	} else {
		if proposed.Index() < o.Status.Index() {
			return nil, ErrRegressionRejected
		}
		if proposed == StatusCompleted {
			if actor == ActorMonitor {
				return nil, ErrPolicyInvariantViolation
			}
			if !actor.HasAdminAuthority() {
				return nil, ErrAdminRequired
			}
		}
	}

	next := o.Clone()
	next.Status = proposed
	next.LastStatusChange = now
	next.UpdatedAt = now
	next.StampTimeline(proposed, now)

	return next, nil
}
