// File: threadpool/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"runtime"

	"github.com/momentics/hioloop/affinity"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/internal/normalize"
	"github.com/momentics/hioloop/ioerrors"
)

// worker repeatedly pops and claims pending work items until the pool shuts
// down. Popping and claiming are deliberately two steps: popping happens
// under the pool mutex, claiming is the lock-free CAS in completion.State
// that also settles the race against a concurrent cancel.
type worker struct {
	pool *Pool
	id   int
	pin  bool
}

func (w *worker) run() {
	defer w.pool.wg.Done()

	if w.pin {
		cpu := normalize.CPUIndex(w.id%runtime.NumCPU(), runtime.NumCPU())
		if err := affinity.SetAffinity(cpu); err != nil {
			// Pinning is a performance knob; a failure here never stops the
			// worker from doing its job.
			_ = err
		}
	}

	for {
		c := w.next()
		if c == nil {
			return // pool stopped and queue drained
		}
		w.execute(c)
	}
}

// next blocks for the next pending item, returning nil once the pool has
// been stopped and the queue is empty.
func (w *worker) next() *completion.Completion {
	w.pool.mu.Lock()
	defer w.pool.mu.Unlock()
	for w.pool.pending.Empty() && !w.pool.shutdown {
		w.pool.cond.Wait()
	}
	if w.pool.pending.Empty() {
		return nil
	}
	return w.pool.pending.Pop()
}

// execute claims c and, on success, runs its work function and reports
// completion back to the owning loop. If a concurrent Cancel already won
// the claim, c is dropped silently: Cancel already returned true to its
// caller, and the callback must never fire for a canceled item.
func (w *worker) execute(c *completion.Completion) {
	if !c.TryClaim() {
		return
	}

	if c.Params.WorkFunc != nil {
		c.Params.WorkFunc(c.UserData, c)
	} else if !c.HasResult() {
		c.SetError(ioerrors.Unexpected)
	}

	c.MarkCompleted()

	if c.Loop != nil {
		c.Loop.PushCompletion(c)
		c.Loop.WakeFromAnywhere()
	} else if c.Callback != nil {
		c.Callback(nil, c)
	}
}
