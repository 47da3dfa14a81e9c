// File: completion/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package completion

import "sync/atomic"

// State is the Completion lifecycle state. Monotonic:
// pending -> running -> completed, or pending -> canceled (terminal), or
// running -> completed (never canceled once running starts).
type State int32

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCanceled:
		return "canceled"
	default:
		return "state(unknown)"
	}
}

// loadState reads the current state.
func (c *Completion) loadState() State {
	return State(atomic.LoadInt32(&c.state))
}

// storeState unconditionally sets the state. Used by the owning loop/backend
// thread for the non-racy pending->running and running->completed edges.
func (c *Completion) storeState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
}

// casState attempts an atomic from->to transition, returning whether it won
// the race. Used for the pending<->canceled edge, which can race against a
// thread-pool worker claiming the item.
func (c *Completion) casState(from, to State) bool {
	return atomic.CompareAndSwapInt32(&c.state, int32(from), int32(to))
}

// State returns the Completion's current lifecycle state.
func (c *Completion) State() State {
	return c.loadState()
}

// MarkRunning unconditionally transitions to running. Called by the loop
// when handing a non-pool completion to a backend.
func (c *Completion) MarkRunning() { c.storeState(StateRunning) }

// MarkCompleted unconditionally transitions to completed. Called by the
// loop/backend/pool once a result has been recorded.
func (c *Completion) MarkCompleted() { c.storeState(StateCompleted) }

// TryClaim attempts the pending->running transition a thread-pool worker
// uses to claim a popped work item. False means a concurrent TryCancel won
// the race first.
func (c *Completion) TryClaim() bool { return c.casState(StatePending, StateRunning) }

// TryCancel attempts the pending->canceled transition. True means the
// caller won the race and the callback must never fire.
func (c *Completion) TryCancel() bool { return c.casState(StatePending, StateCanceled) }
