// File: threadpool/pool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioloop/completion"
)

// fakeNotifier records pushed completions and wake calls, standing in for
// the loop in tests that never construct a real one.
type fakeNotifier struct {
	mu     sync.Mutex
	pushed []*completion.Completion
	woken  int32
}

func (f *fakeNotifier) Add(c *completion.Completion) error { return nil }
func (f *fakeNotifier) Stop()                               {}
func (f *fakeNotifier) Wake()                               { atomic.AddInt32(&f.woken, 1) }
func (f *fakeNotifier) WakeFromAnywhere()                   { atomic.AddInt32(&f.woken, 1) }
func (f *fakeNotifier) PushCompletion(c *completion.Completion) {
	f.mu.Lock()
	f.pushed = append(f.pushed, c)
	f.mu.Unlock()
}

func TestPoolRunsWork(t *testing.T) {
	p := New(Options{MaxThreads: 2})
	defer p.Stop()

	var ran int32
	done := make(chan struct{})
	c := completion.NewWork(func(userdata any, c *completion.Completion) {
		atomic.AddInt32(&ran, 1)
		c.SetResult(completion.Result{N: 1})
	}, nil, nil)
	nf := &fakeNotifier{}
	c.Loop = nf
	_ = done

	p.Submit(c)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		nf.mu.Lock()
		n := len(nf.pushed)
		nf.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("work function did not run")
	}
	if c.State() != completion.StateCompleted {
		t.Fatalf("expected completed, got %s", c.State())
	}
	if atomic.LoadInt32(&nf.woken) == 0 {
		t.Fatalf("expected WakeFromAnywhere to be called")
	}
}

func TestPoolBoundedWorkerCount(t *testing.T) {
	p := New(Options{MaxThreads: 3})
	defer p.Stop()

	if got := p.NumWorkers(); got != 3 {
		t.Fatalf("NumWorkers() = %d, want 3", got)
	}
}

// TestCancelBeforeClaimWins verifies a Cancel that wins the race against a
// worker's TryClaim guarantees the work function never runs.
func TestCancelBeforeClaimWins(t *testing.T) {
	// A pool with zero running workers lets us control the race: the item
	// sits pending until we cancel it ourselves, then we verify a manual
	// claim attempt (simulating a tardy worker) fails.
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)

	var ran int32
	c := completion.NewWork(func(userdata any, c *completion.Completion) {
		atomic.AddInt32(&ran, 1)
	}, nil, nil)

	p.mu.Lock()
	p.pending.Push(c)
	p.mu.Unlock()

	if !p.Cancel(c) {
		t.Fatalf("Cancel() = false, want true for a still-pending item")
	}
	if c.State() != completion.StateCanceled {
		t.Fatalf("state = %s, want canceled", c.State())
	}

	w := &worker{pool: p}
	w.execute(c)

	if atomic.LoadInt32(&ran) != 0 {
		t.Fatalf("work function ran after cancellation won the race")
	}
}

// TestCancelAfterClaimLoses covers the opposite edge: once a worker has
// already claimed (pending->running), Cancel must report false and the
// work must run to completion normally.
func TestCancelAfterClaimLoses(t *testing.T) {
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)

	c := completion.NewWork(func(userdata any, c *completion.Completion) {}, nil, nil)
	if !c.TryClaim() {
		t.Fatalf("TryClaim() = false on a fresh pending completion")
	}
	if p.Cancel(c) {
		t.Fatalf("Cancel() = true after the item was already claimed")
	}
}

func TestPoolSubmitAfterStopIsNoop(t *testing.T) {
	p := New(Options{MaxThreads: 1})
	p.Stop()

	c := completion.NewWork(func(userdata any, c *completion.Completion) {}, nil, nil)
	p.Submit(c)

	if c.State() != completion.StatePending {
		t.Fatalf("state = %s, want pending (submit after stop must be dropped)", c.State())
	}
}
