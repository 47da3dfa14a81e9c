// File: hioloop/hioloop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package hioloop aggregates the runtime's core components — thread
// pool, scratch buffer manager, and event loop — behind one
// construction call. There is no transport/session/protocol layer to
// wire in: this runtime hands the caller a Loop and gets out of the way.
package hioloop

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/loop"
	"github.com/momentics/hioloop/pool"
	"github.com/momentics/hioloop/threadpool"
)

// Config holds the immutable parameters used to construct a Runtime.
// There is no hot-reload or file/env sourcing here; construct a new
// Runtime to pick up different values.
type Config struct {
	// NumWorkers bounds the thread pool's worker count. <= 0 defaults to
	// runtime.NumCPU() (threadpool.Options' own default).
	NumWorkers int
	// PinWorkers pins each pool worker to a CPU core.
	PinWorkers bool
	// DefaultPollTimeout bounds how long the loop blocks in one Poll call
	// when nothing else wakes it first.
	DefaultPollTimeout time.Duration
}

// DefaultConfig returns the zero-tuning defaults: thread pool sized to
// NumCPU, no pinning, 100ms poll safety net — the same defaults
// threadpool.Options and loop.Options fall back to on their own.
func DefaultConfig() Config {
	return Config{DefaultPollTimeout: 100 * time.Millisecond}
}

// Runtime bundles one thread pool and one Loop constructed to use it,
// plus the NUMA-aware buffer manager both can draw scratch memory from.
type Runtime struct {
	mu      sync.Mutex
	closed  bool
	pool    *threadpool.Pool
	loop    *loop.Loop
	buffers *pool.Manager
}

// New constructs a Runtime: a thread pool per cfg, a Loop wired to use
// it with the platform's default backend, and a shared buffer manager.
func New(cfg Config) (*Runtime, error) {
	tp := threadpool.New(threadpool.Options{
		MaxThreads: cfg.NumWorkers,
		PinWorkers: cfg.PinWorkers,
	})

	bufs := pool.NewManager()

	l, err := loop.New(
		loop.WithPool(tp),
		loop.WithDefaultPollTimeout(cfg.DefaultPollTimeout),
		loop.WithBufferManager(bufs),
	)
	if err != nil {
		tp.Stop()
		return nil, fmt.Errorf("hioloop: loop init: %w", err)
	}

	return &Runtime{pool: tp, loop: l, buffers: bufs}, nil
}

// Loop returns the runtime's event loop. Call Loop().Run from the
// goroutine that should own it — the loop is single-threaded by contract.
func (r *Runtime) Loop() *loop.Loop { return r.loop }

// Pool returns the runtime's thread pool, for callers submitting their
// own completion.NewWork items directly.
func (r *Runtime) Pool() *threadpool.Pool { return r.pool }

// Buffers returns the runtime's NUMA-aware scratch buffer manager.
func (r *Runtime) Buffers() *pool.Manager { return r.buffers }

// Submit is a convenience wrapper around completion.NewWork + Loop.Add:
// fn runs on a pool worker, cb fires back on the loop's owning thread.
func (r *Runtime) Submit(fn func(userdata any, c *completion.Completion), userdata any, cb completion.Callback) error {
	return r.loop.Add(completion.NewWork(fn, userdata, cb))
}

// Close stops the thread pool and releases the backend's kernel
// resource. The Loop must not be run again afterward. Safe to call more
// than once.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.loop.Stop()
	r.pool.Stop()
	return r.loop.Deinit()
}
