// File: backend/pollset/pollset_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pollset

import (
	"os"
	"testing"
	"time"

	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/internal/timerq"
	"github.com/momentics/hioloop/queue"
	"github.com/momentics/hioloop/threadpool"
)

// fakeMux is a mux that never touches a real epoll/kqueue fd, so these
// tests exercise Backend's dispatch and timer logic without a kernel.
type fakeMux struct {
	added    map[int]bool
	removed  []int
	waitErr  error
	waitRet  []readyFD
	waitCall int
	lastWait time.Duration
	woken    int
	closed   bool
}

func newFakeMux() *fakeMux { return &fakeMux{added: make(map[int]bool)} }

func (f *fakeMux) add(fd int, read, write bool) error    { f.added[fd] = true; return nil }
func (f *fakeMux) modify(fd int, read, write bool) error { return nil }
func (f *fakeMux) remove(fd int) error                   { f.removed = append(f.removed, fd); delete(f.added, fd); return nil }
func (f *fakeMux) wait(timeout time.Duration) ([]readyFD, error) {
	f.waitCall++
	f.lastWait = timeout
	return f.waitRet, f.waitErr
}
func (f *fakeMux) wake() error { f.woken++; return nil }
func (f *fakeMux) close() error { f.closed = true; return nil }

func newTestBackend(m mux) *Backend {
	return &Backend{m: m, waiting: make(map[int]*pending), timers: timerq.New()}
}

func TestSubmitUnsupportedOpReportsNotSupported(t *testing.T) {
	b := newTestBackend(newFakeMux())
	c := completion.NewNetGetAddrInfo("h", "s", nil, nil, nil)
	c.Op = completion.Op(999) // not in the switch

	done, err := b.Submit(c)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !done {
		t.Fatal("expected an unsupported op to complete inline")
	}
	if _, err := c.GetResult(completion.Op(999)); err == nil {
		t.Fatal("expected an error result for an unsupported op")
	}
}

func TestSubmitTimerDoesNotCompleteImmediately(t *testing.T) {
	b := newTestBackend(newFakeMux())
	c := completion.NewTimer(time.Now().Add(time.Hour), nil, nil)

	done, err := b.Submit(c)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if done {
		t.Fatal("a timer with a future deadline must not complete on Submit")
	}
	if c.HasResult() {
		t.Fatal("timer completion must have no result until it expires")
	}
	if b.timers.Len() != 1 {
		t.Fatalf("timers.Len() = %d, want 1", b.timers.Len())
	}
}

func TestPollDeliversExpiredTimer(t *testing.T) {
	b := newTestBackend(newFakeMux())
	c := completion.NewTimer(time.Now().Add(-time.Millisecond), nil, nil)
	if _, err := b.Submit(c); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	batch := queue.NewBatch()
	n, err := b.Poll(10*time.Millisecond, batch)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 1 {
		t.Fatalf("Poll returned n=%d, want 1", n)
	}
	drained := batch.Drain()
	if len(drained) != 1 || drained[0] != c {
		t.Fatal("expected the expired timer completion in the batch")
	}
	if !c.HasResult() {
		t.Fatal("expired timer must have a result recorded")
	}
}

func TestPollClampsWaitToNextTimerDeadline(t *testing.T) {
	m := newFakeMux()
	b := newTestBackend(m)
	c := completion.NewTimer(time.Now().Add(5*time.Millisecond), nil, nil)
	if _, err := b.Submit(c); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	batch := queue.NewBatch()
	if _, err := b.Poll(time.Hour, batch); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if m.waitCall != 1 {
		t.Fatalf("mux.wait called %d times, want 1", m.waitCall)
	}
	if m.lastWait > 5*time.Millisecond {
		t.Fatalf("mux.wait timeout = %v, want <= 5ms", m.lastWait)
	}
}

func TestPollRetriesPendingReadinessAndCompletes(t *testing.T) {
	m := newFakeMux()
	b := newTestBackend(m)

	// Manually register a pending completion the way submitRecv/submitSend
	// etc. would on EWOULDBLOCK, with a faked readiness event: the retry of
	// this OpNetClose is a real close(7), which finishes the completion
	// whether it succeeds or fails.
	c := completion.NewNetClose(7, nil, nil)
	b.waiting[7] = &pending{c: c, fd: 7, wantWrite: false}
	m.added[7] = true
	m.waitRet = []readyFD{{fd: 7, readable: true}}

	batch := queue.NewBatch()
	n, err := b.Poll(time.Millisecond, batch)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 1 {
		t.Fatalf("Poll returned n=%d, want 1", n)
	}
	if _, ok := b.waiting[7]; ok {
		t.Fatal("fd 7 should have been unregistered from waiting once retried")
	}
	if len(m.removed) != 1 || m.removed[0] != 7 {
		t.Fatal("mux.remove was not called for the retried fd")
	}
}

func TestCancelRemovesWaitingRegistration(t *testing.T) {
	b := newTestBackend(newFakeMux())

	c := completion.NewNetRecv(9, nil, 0, nil, nil)
	b.waiting[9] = &pending{c: c, fd: 9}

	if !b.Cancel(c) {
		t.Fatal("Cancel should succeed for a not-yet-claimed pending completion")
	}
	if _, ok := b.waiting[9]; ok {
		t.Fatal("waiting registration should be removed on Cancel")
	}
	if c.State() != completion.StateCanceled {
		t.Fatalf("state = %v, want canceled", c.State())
	}
}

func TestCancelRemovesPendingTimer(t *testing.T) {
	b := newTestBackend(newFakeMux())
	c := completion.NewTimer(time.Now().Add(time.Hour), nil, nil)
	if _, err := b.Submit(c); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !b.Cancel(c) {
		t.Fatal("Cancel should succeed for a still-pending timer")
	}
	if b.timers.Len() != 0 {
		t.Fatalf("timers.Len() = %d, want 0 after cancel", b.timers.Len())
	}
}

func TestCancelFailsOnceAlreadyRunningAndClaimed(t *testing.T) {
	b := newTestBackend(newFakeMux())
	c := completion.NewNetRecv(9, nil, 0, nil, nil)
	c.MarkRunning()
	c.MarkCompleted()

	if b.Cancel(c) {
		t.Fatal("Cancel must fail once the completion is already terminal")
	}
}

func TestWakeAndCloseDelegateToMux(t *testing.T) {
	m := newFakeMux()
	b := newTestBackend(m)

	if err := b.Wake(); err != nil {
		t.Fatalf("Wake: %v", err)
	}
	if err := b.WakeFromAnywhere(); err != nil {
		t.Fatalf("WakeFromAnywhere: %v", err)
	}
	if m.woken != 2 {
		t.Fatalf("mux.wake called %d times, want 2", m.woken)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !m.closed {
		t.Fatal("mux was never closed")
	}
}

func TestSubmitFileOpWithoutPoolReportsNoThreadPool(t *testing.T) {
	b := newTestBackend(newFakeMux())
	c := completion.NewFileSync(3, nil, nil)

	done, err := b.Submit(c)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !done {
		t.Fatal("a file op with no pool must complete inline with an error")
	}
	if _, err := c.GetResult(completion.OpFileSync); err == nil {
		t.Fatal("expected NoThreadPool error")
	}
}

// TestSubmitFileWriteOffloadsToPoolAndCompletes exercises the fix for file
// ops stalling the poll thread: a real write syscall runs on a pool worker,
// not on the goroutine calling Submit, and the result reaches Poll only
// after PushCompletion/WakeFromAnywhere fire.
func TestSubmitFileWriteOffloadsToPoolAndCompletes(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "pollset-write-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	pool := threadpool.New(threadpool.Options{MaxThreads: 2})
	defer pool.Stop()

	b := newTestBackend(newFakeMux())
	b.pool = pool

	payload := []byte("hello")
	c := completion.NewFileWrite(int(f.Fd()), []completion.IOVec{{Buf: payload}}, nil, nil)

	done, err := b.Submit(c)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if done {
		t.Fatal("a pool-offloaded file write must not complete synchronously from Submit")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.doneMu.Lock()
		n := len(b.done)
		b.doneMu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	batch := queue.NewBatch()
	if _, err := b.Poll(10*time.Millisecond, batch); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	drained := batch.Drain()
	if len(drained) != 1 || drained[0] != c {
		t.Fatalf("expected the finished write completion in the batch, got %d entries", len(drained))
	}

	res, err := c.GetResult(completion.OpFileWrite)
	if err != nil {
		t.Fatalf("file write result: %v", err)
	}
	if res.N != len(payload) {
		t.Fatalf("wrote N=%d, want %d", res.N, len(payload))
	}
}

func TestKindReportsPollset(t *testing.T) {
	b := newTestBackend(newFakeMux())
	if b.Kind() != backend.KindPollset {
		t.Fatalf("Kind() = %v, want KindPollset", b.Kind())
	}
}
