// File: backend/contract.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package backend defines the contract every OS-specific completion
// backend (io_uring, IOCP, a readiness-poll fallback) must satisfy, plus
// the batch type each backend stages reaped completions into for one
// poll() call. Generalizes a bare fd-readiness reactor interface into the
// full completion lifecycle this runtime needs.
package backend

import (
	"time"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/queue"
)

// Backend is the pluggable OS-specific half of the loop: it owns the
// kernel-facing resource (a ring, a completion port, an epoll/kqueue fd)
// and turns submitted Completions into delivered results.
type Backend interface {
	// Submit hands c to the kernel, or — for an op the backend can finish
	// without blocking (bind/listen/close/shutdown/open, and any op that
	// happens to succeed immediately) — executes it inline and calls
	// c.SetResult/SetError before returning. done reports which happened:
	// true means c is already terminal and ready for dispatch; false means
	// c is now in flight and will surface later through Poll. Submit
	// itself never blocks.
	Submit(c *completion.Completion) (done bool, err error)

	// Poll waits up to timeout for completions to become ready, appending
	// each to batch, and returns how many were appended. timeout < 0 means
	// wait indefinitely; timeout == 0 means return immediately.
	Poll(timeout time.Duration, batch *Batch) (n int, err error)

	// Cancel requests cancellation of an in-flight (already-submitted)
	// completion. Returns true only if the cancellation is guaranteed to
	// prevent c's callback from observing a successful result; a backend
	// that cannot interrupt in-flight work once started returns false and
	// lets the operation complete normally.
	Cancel(c *completion.Completion) bool

	// RegisterWake arms the backend's cross-thread wake completion, called
	// once during loop.New.
	RegisterWake(wake *completion.Completion) error

	// Wake unblocks a Poll call currently running on the loop's own
	// thread (same-thread convenience, e.g. from a completion callback
	// that calls Loop.Stop).
	Wake() error

	// WakeFromAnywhere unblocks a Poll call from any goroutine, including
	// threadpool workers delivering finished pool items. Must be safe to
	// call concurrently with Submit/Poll.
	WakeFromAnywhere() error

	// Close releases the backend's kernel resource. The backend must not
	// be used afterward.
	Close() error
}

// Batch is the ephemeral, growable staging area a backend's Poll fills
// with reaped completions before the loop splices them one at a time onto
// its completion queue. Alias of queue.Batch, which wraps
// github.com/eapache/queue rather than duplicating a growable-queue
// implementation here.
type Batch = queue.Batch

// Kind identifies which concrete Backend a loop selected, for logging and
// for tests that need to skip platform-inapplicable assertions.
type Kind int

const (
	KindURing Kind = iota
	KindIOCP
	KindPollset
)

func (k Kind) String() string {
	switch k {
	case KindURing:
		return "uring"
	case KindIOCP:
		return "iocp"
	case KindPollset:
		return "pollset"
	default:
		return "backend(unknown)"
	}
}
