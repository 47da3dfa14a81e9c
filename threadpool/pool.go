// File: threadpool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package threadpool implements the bounded worker set that executes
// intrinsically blocking work (filesystem syscalls where no kernel-async
// path exists, name resolution) so the event loop never stalls on them.
// Uses a single shared mutex+condition FIFO rather than per-worker
// lock-free queues, since a cancel must be able to scan and remove a
// still-queued item — something per-worker lock-free ring queues don't
// support removal from.
package threadpool

import (
	"sync"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/queue"
)

// Pool is a bounded set of worker goroutines draining a shared FIFO of
// work-item completions.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  queue.FIFO[completion.Completion, *completion.Completion]
	shutdown bool

	workers []*worker
	wg      sync.WaitGroup
}

// New spawns opts.MaxThreads workers and returns the running pool.
func New(opts Options) *Pool {
	opts = opts.normalize()
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	p.workers = make([]*worker, opts.MaxThreads)
	for i := range p.workers {
		w := &worker{pool: p, id: i, pin: opts.PinWorkers}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run()
	}
	return p
}

// Submit enqueues c and wakes exactly one worker. c.Op must be
// completion.OpWork or a blocking-only op (net-getaddrinfo, net-getnameinfo);
// c retains State pending until a worker claims it — see worker.run.
func (p *Pool) Submit(c *completion.Completion) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	p.pending.Push(c)
	p.mu.Unlock()
	p.cond.Signal()
}

// Cancel atomically compares c.State from pending to canceled. On success it
// also removes c from the pending queue (if still present — it may already
// have been popped by a worker racing to claim it, in which case the CAS
// itself is still the authoritative settler) and returns true. Returns
// false if c is already running or completed.
func (p *Pool) Cancel(c *completion.Completion) bool {
	if !c.TryCancel() {
		return false
	}
	p.mu.Lock()
	p.pending.Remove(c)
	p.mu.Unlock()
	return true
}

// Stop signals shutdown, wakes every waiting worker, and blocks until all
// have exited.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	p.shutdown = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// NumWorkers returns the pool's fixed worker count.
func (p *Pool) NumWorkers() int { return len(p.workers) }
