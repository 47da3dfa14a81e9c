// File: loop/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package loop implements the single-threaded run-state machine: drain
// submission queue, hand completions to the backend, poll for delivery,
// dispatch callbacks, repeat. Modeled on an adaptive-backoff run loop,
// generalized from a fixed-size ring of opaque events to the completion
// lifecycle and pluggable backend contract of this runtime.
package loop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/internal/rt"
	"github.com/momentics/hioloop/pool"
	"github.com/momentics/hioloop/queue"
	"github.com/momentics/hioloop/threadpool"
)

// Loop is the event loop: one per OS thread by convention, though nothing
// here prevents multiple Loops coexisting in one process.
type Loop struct {
	opts    Options
	backend backend.Backend
	pool    *threadpool.Pool

	// submission is owner-thread only: Add and the run loop itself are the
	// only writers, and both are expected to run on the thread that owns
	// the Loop.
	submission queue.FIFO[completion.Completion, *completion.Completion]

	// cross receives completions pushed from other goroutines — thread
	// pool workers delivering finished work, or a future cross-thread
	// Add. Guarded by mu; spliced into submission/ready at the top of each
	// run iteration.
	mu    sync.Mutex
	cross queue.FIFO[completion.Completion, *completion.Completion]

	wake *completion.Completion

	stopping int32 // atomic bool
}

// New constructs a Loop. It does not start running; call Run.
func New(opts ...Option) (*Loop, error) {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	o = o.normalize()

	be := o.Backend
	var err error
	if be == nil {
		be, err = selectBackend(o.Pool)
		if err != nil {
			return nil, err
		}
	}

	l := &Loop{opts: o, backend: be, pool: o.Pool}
	l.wake = completion.NewTimer(time.Time{}, nil, nil)
	l.wake.Op = completion.OpAsyncWake
	if err := l.backend.RegisterWake(l.wake); err != nil {
		return nil, err
	}
	rt.Logger().Debug().Str("backend", backendKind(be).String()).Msg("loop initialized")
	return l, nil
}

// Add enqueues c for submission on the next run iteration. Must be called
// from the Loop's owning goroutine once Run has started; use
// PushCompletion from other goroutines instead.
func (l *Loop) Add(c *completion.Completion) error {
	l.submission.Push(c)
	return nil
}

// PushCompletion delivers an already-finished completion (typically from a
// thread-pool worker) back onto the loop for callback dispatch. Safe to
// call from any goroutine; implements completion.Notifier.
func (l *Loop) PushCompletion(c *completion.Completion) {
	l.mu.Lock()
	l.cross.Push(c)
	l.mu.Unlock()
}

// Wake unblocks a Poll currently running on the Loop's own thread.
func (l *Loop) Wake() {
	if err := l.backend.Wake(); err != nil {
		rt.Logger().Warn().Err(err).Msg("wake failed")
	}
}

// WakeFromAnywhere unblocks a Poll from any goroutine. Implements
// completion.Notifier.
func (l *Loop) WakeFromAnywhere() {
	if err := l.backend.WakeFromAnywhere(); err != nil {
		rt.Logger().Warn().Err(err).Msg("wakeFromAnywhere failed")
	}
}

// Stop requests the run loop exit at the next opportunity. Implements
// completion.Notifier.
func (l *Loop) Stop() {
	atomic.StoreInt32(&l.stopping, 1)
	l.WakeFromAnywhere()
}

func (l *Loop) stopRequested() bool {
	return atomic.LoadInt32(&l.stopping) == 1
}

// Buffers returns this Loop's NUMA-aware scratch buffer manager, for
// callers that want to borrow pooled memory for their IOVecs rather than
// allocating fresh ones per completion.
func (l *Loop) Buffers() *pool.Manager { return l.opts.Buffers }

// Deinit releases the backend's kernel resource. The Loop must not be used
// afterward; any outstanding thread pool is the caller's to Stop
// separately, since a Pool may be shared across Loops.
func (l *Loop) Deinit() error {
	return l.backend.Close()
}

func backendKind(b backend.Backend) backend.Kind {
	type kinder interface{ Kind() backend.Kind }
	if k, ok := b.(kinder); ok {
		return k.Kind()
	}
	return backend.KindPollset
}
