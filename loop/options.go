// File: loop/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package loop

import (
	"time"

	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/pool"
	"github.com/momentics/hioloop/threadpool"
)

// Options configures a Loop at construction. Functional-options struct
// literal only, with no file/env sourcing — this runtime takes no CLI
// flags and reads no config files.
type Options struct {
	// Pool, when set, is used to dispatch OpWork and blocking-only ops
	// (getaddrinfo, getnameinfo). A Loop with no Pool fails those
	// submissions with ioerrors.NoThreadPool.
	Pool *threadpool.Pool

	// Backend overrides automatic platform backend selection; nil selects
	// per-build-tag (uring on linux, iocp on windows, pollset elsewhere).
	Backend backend.Backend

	// DefaultPollTimeout bounds how long one Poll call blocks in
	// ModeUntilDone and ModeOnce; ModeNoWait polls with a zero timeout.
	// Thread-pool workers wake a blocked Poll through WakeFromAnywhere
	// after pushing their result, so this timeout is a safety net, not the
	// only way back into poll.
	DefaultPollTimeout time.Duration

	// Buffers, when set, is handed back via Loop.Buffers so callers can
	// borrow NUMA-local scratch buffers for their IOVecs instead of
	// allocating fresh ones per completion. The runtime never reaches into
	// this itself — every IOVec stays caller-owned — it's a convenience
	// the loop carries alongside the backend rather than a parameter of
	// Submit.
	Buffers *pool.Manager
}

// Option mutates Options via the functional-options pattern.
type Option func(*Options)

// WithPool attaches a thread pool for blocking-op offload.
func WithPool(p *threadpool.Pool) Option {
	return func(o *Options) { o.Pool = p }
}

// WithBackend overrides automatic backend selection, primarily for tests.
func WithBackend(b backend.Backend) Option {
	return func(o *Options) { o.Backend = b }
}

// WithDefaultPollTimeout overrides the poll safety-net timeout.
func WithDefaultPollTimeout(d time.Duration) Option {
	return func(o *Options) { o.DefaultPollTimeout = d }
}

// WithBufferManager attaches a NUMA-aware scratch buffer manager.
func WithBufferManager(m *pool.Manager) Option {
	return func(o *Options) { o.Buffers = m }
}

func (o Options) normalize() Options {
	if o.DefaultPollTimeout <= 0 {
		o.DefaultPollTimeout = 100 * time.Millisecond
	}
	if o.Buffers == nil {
		o.Buffers = pool.NewManager()
	}
	return o
}
