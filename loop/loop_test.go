// File: loop/loop_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package loop

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/threadpool"
)

// fakeBackend is a minimal backend.Backend that completes every op inline
// from Submit, so tests never touch real sockets or kernel rings.
type fakeBackend struct {
	submitted  []*completion.Completion
	canceled   []*completion.Completion
	cancelRet  bool
	wakeCalled int
	closed     bool
	polls      int
	lastPoll   time.Duration
}

func (f *fakeBackend) Submit(c *completion.Completion) (bool, error) {
	f.submitted = append(f.submitted, c)
	c.SetResult(completion.Result{N: 1})
	return true, nil
}

func (f *fakeBackend) Poll(timeout time.Duration, batch *backend.Batch) (int, error) {
	f.polls++
	f.lastPoll = timeout
	return 0, nil
}

func (f *fakeBackend) Cancel(c *completion.Completion) bool {
	f.canceled = append(f.canceled, c)
	return f.cancelRet
}

func (f *fakeBackend) RegisterWake(wake *completion.Completion) error { return nil }
func (f *fakeBackend) Wake() error                                   { f.wakeCalled++; return nil }
func (f *fakeBackend) WakeFromAnywhere() error                        { f.wakeCalled++; return nil }
func (f *fakeBackend) Close() error                                   { f.closed = true; return nil }

var _ backend.Backend = (*fakeBackend)(nil)

func newTestLoop(t *testing.T, be backend.Backend) *Loop {
	t.Helper()
	l, err := New(WithBackend(be))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestRunModeOnceDispatchesInlineCompletion(t *testing.T) {
	be := &fakeBackend{}
	l := newTestLoop(t, be)

	var gotResult completion.Result
	fired := false
	c := completion.NewNetClose(3, nil, func(notifier completion.Notifier, c *completion.Completion) {
		fired = true
		gotResult, _ = c.GetResult(completion.OpNetClose)
	})

	if err := l.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Run(ModeOnce); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !fired {
		t.Fatal("callback never fired")
	}
	if gotResult.N != 1 {
		t.Fatalf("result.N = %d, want 1", gotResult.N)
	}
	if len(be.submitted) != 1 {
		t.Fatalf("backend.Submit called %d times, want 1", len(be.submitted))
	}
}

func TestRunModeNoWaitPollsWithZeroTimeout(t *testing.T) {
	be := &fakeBackend{}
	l := newTestLoop(t, be)

	if err := l.Run(ModeNoWait); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if be.polls != 1 {
		t.Fatalf("Poll called %d times, want 1", be.polls)
	}
	if be.lastPoll != 0 {
		t.Fatalf("Poll timeout = %v, want 0", be.lastPoll)
	}
}

func TestRunUntilDoneStopsWhenNothingOutstanding(t *testing.T) {
	be := &fakeBackend{}
	l := newTestLoop(t, be)

	c := completion.NewNetClose(3, nil, nil)
	if err := l.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(ModeUntilDone) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run(ModeUntilDone) did not return once work drained")
	}
}

func TestStopTerminatesRun(t *testing.T) {
	be := &fakeBackend{}
	l := newTestLoop(t, be)

	// Keep the loop busy forever by submitting one completion per
	// iteration from within its own callback, then Stop from inside it.
	var submitMore func(notifier completion.Notifier, c *completion.Completion)
	count := 0
	submitMore = func(notifier completion.Notifier, c *completion.Completion) {
		count++
		if count >= 3 {
			notifier.Stop()
			return
		}
		_ = notifier.Add(completion.NewNetClose(3, nil, submitMore))
	}
	if err := l.Add(completion.NewNetClose(3, nil, submitMore)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(ModeUntilDone) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if count < 3 {
		t.Fatalf("callback fired %d times, want >= 3", count)
	}
}

func TestAddWithoutPoolFailsBlockingOnlyOps(t *testing.T) {
	be := &fakeBackend{}
	l := newTestLoop(t, be)

	fired := false
	var gotErr error
	c := completion.NewNetGetAddrInfo("localhost", "80", make([]completion.AddrInfo, 1), nil,
		func(notifier completion.Notifier, c *completion.Completion) {
			fired = true
			_, gotErr = c.GetResult(completion.OpNetGetAddrInfo)
		})

	if err := l.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Run(ModeOnce); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !fired {
		t.Fatal("callback never fired for pool-less blocking op")
	}
	if gotErr == nil {
		t.Fatal("expected an error when no thread pool is configured")
	}
}

func TestAddRoutesWorkToPool(t *testing.T) {
	be := &fakeBackend{}
	pool := threadpool.New(threadpool.Options{MaxThreads: 2})
	defer pool.Stop()

	l, err := New(WithBackend(be), WithPool(pool))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ran := make(chan struct{})
	done := make(chan struct{})
	c := completion.NewWork(func(userdata any, c *completion.Completion) {
		close(ran)
		c.SetResult(completion.Result{})
	}, nil, func(notifier completion.Notifier, c *completion.Completion) {
		notifier.Stop()
		close(done)
	})

	if err := l.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ModeUntilDone) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("work function never ran on the pool")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never dispatched back on the loop")
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(be.submitted) != 0 {
		t.Fatal("OpWork must never reach the backend directly")
	}
}

// TestAddResolvesGetAddrInfoWithPool exercises the fix ensuring a
// net-getaddrinfo completion actually gets a WorkFunc wired in before it
// reaches the pool, instead of completing with Unexpected. "127.0.0.1" is
// a literal IP, so net.Resolver answers it without a real DNS query.
func TestAddResolvesGetAddrInfoWithPool(t *testing.T) {
	be := &fakeBackend{}
	pool := threadpool.New(threadpool.Options{MaxThreads: 2})
	defer pool.Stop()

	l, err := New(WithBackend(be), WithPool(pool))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan struct{})
	var gotResult completion.Result
	var gotErr error
	results := make([]completion.AddrInfo, 1)
	c := completion.NewNetGetAddrInfo("127.0.0.1", "80", results, nil,
		func(notifier completion.Notifier, c *completion.Completion) {
			gotResult, gotErr = c.GetResult(completion.OpNetGetAddrInfo)
			notifier.Stop()
			close(done)
		})

	if err := l.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ModeUntilDone) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("getaddrinfo completion never fired")
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotErr != nil {
		t.Fatalf("getaddrinfo failed: %v", gotErr)
	}
	if gotResult.N != 1 {
		t.Fatalf("N = %d, want 1", gotResult.N)
	}
}

func TestHandleCancelOnBackendCompletion(t *testing.T) {
	be := &fakeBackend{cancelRet: true}
	l := newTestLoop(t, be)

	target := completion.NewNetRecv(3, nil, 0, nil, nil)
	target.MarkRunning() // simulate already in flight with the backend

	var n int
	cancel := completion.NewCancel(target, nil, func(notifier completion.Notifier, c *completion.Completion) {
		r, _ := c.GetResult(completion.OpCancel)
		n = r.N
	})
	if err := l.Add(cancel); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Run(ModeOnce); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("cancel result.N = %d, want 1 (backend.Cancel succeeded)", n)
	}
	if len(be.canceled) != 1 || be.canceled[0] != target {
		t.Fatal("backend.Cancel was not invoked with the target completion")
	}
}

func TestHandleCancelRoutesPoolWorkThroughPoolCancel(t *testing.T) {
	be := &fakeBackend{}
	pool := threadpool.New(threadpool.Options{MaxThreads: 1})
	defer pool.Stop()

	// Keep the single worker busy on a blocker so target provably cannot
	// be claimed before the cancel below runs, making the race
	// deterministic rather than timing-dependent.
	blockCh := make(chan struct{})
	blocker := completion.NewWork(func(userdata any, c *completion.Completion) {
		<-blockCh
		c.SetResult(completion.Result{})
	}, nil, nil)
	pool.Submit(blocker)
	defer close(blockCh)

	target := completion.NewWork(func(userdata any, c *completion.Completion) {}, nil, nil)
	pool.Submit(target)

	l, err := New(WithBackend(be), WithPool(pool))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var n int
	cancel := completion.NewCancel(target, nil, func(notifier completion.Notifier, c *completion.Completion) {
		r, _ := c.GetResult(completion.OpCancel)
		n = r.N
	})
	if err := l.Add(cancel); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Run(ModeOnce); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("cancel result.N = %d, want 1", n)
	}
	if target.State() != completion.StateCanceled {
		t.Fatalf("target.State() = %v, want canceled", target.State())
	}
}

func TestDeinitClosesBackend(t *testing.T) {
	be := &fakeBackend{}
	l := newTestLoop(t, be)
	if err := l.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}
	if !be.closed {
		t.Fatal("backend was never closed")
	}
}

// errBackend always fails Submit, to exercise the loop's handling of a
// Submit error: the error is recorded on the completion and Run itself
// still returns nil.
type errBackend struct{ fakeBackend }

func (e *errBackend) Submit(c *completion.Completion) (bool, error) {
	return false, errors.New("boom")
}

func TestSubmitErrorMarksCompletionFailed(t *testing.T) {
	be := &errBackend{}
	l := newTestLoop(t, be)

	var gotErr error
	c := completion.NewNetClose(3, nil, func(notifier completion.Notifier, c *completion.Completion) {
		_, gotErr = c.GetResult(completion.OpNetClose)
	})
	if err := l.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Run(ModeOnce); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotErr == nil {
		t.Fatal("expected a normalized error on backend.Submit failure")
	}
}
