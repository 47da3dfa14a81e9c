// File: backend/pollset/pollset.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package pollset is the readiness-poll fallback backend: epoll on
// Linux, kqueue on Darwin/BSD, behind one platform-tag-free Backend
// implementation. Modeled on an edge-triggered epoll reactor, generalized
// from a bare fd-readiness callback to full completion dispatch: Submit
// attempts the syscall immediately, and only falls back to readiness
// registration on EWOULDBLOCK.
package pollset

import (
	"sync"
	"time"

	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/internal/rt"
	"github.com/momentics/hioloop/internal/timerq"
	"github.com/momentics/hioloop/ioerrors"
	"github.com/momentics/hioloop/osshim"
	"github.com/momentics/hioloop/threadpool"
)

// mux is the minimal platform-specific readiness multiplexer pollset needs:
// register a fd for read and/or write readiness, wait for ready fds, wake
// a blocked Wait from any goroutine, and tear down.
type mux interface {
	add(fd int, read, write bool) error
	modify(fd int, read, write bool) error
	remove(fd int) error
	wait(timeout time.Duration) ([]readyFD, error)
	wake() error
	close() error
}

type readyFD struct {
	fd              int
	readable, write bool
}

// pending tracks one completion blocked on readiness.
type pending struct {
	c         *completion.Completion
	fd        int
	wantWrite bool
}

// Backend implements backend.Backend over a readiness multiplexer.
type Backend struct {
	m       mux
	waiting map[int]*pending // fd -> blocked completion
	timers  *timerq.Queue
	pool    *threadpool.Pool

	doneMu sync.Mutex
	done   []*completion.Completion // pool-offloaded file ops, delivered via PushCompletion
}

// New constructs the pollset backend for the current platform. pool, if
// non-nil, is where filesystem ops are offloaded: this backend has no
// kernel-async path for them the way it does for socket readiness, so
// running them inline in Submit would stall the poll loop on every disk
// syscall.
func New(pool *threadpool.Pool) (*Backend, error) {
	m, err := newMux()
	if err != nil {
		return nil, err
	}
	return &Backend{m: m, waiting: make(map[int]*pending), timers: timerq.New(), pool: pool}, nil
}

// PushCompletion lets a pool worker deliver a finished filesystem op back
// to this backend's own Poll, mirroring how loop.Loop receives
// pool-finished work on its cross queue.
func (b *Backend) PushCompletion(c *completion.Completion) {
	b.doneMu.Lock()
	b.done = append(b.done, c)
	b.doneMu.Unlock()
}

// poolNotifier is the completion.Notifier set as c.Loop on this backend's
// pool-offloaded file ops: PushCompletion queues the op for Poll and
// WakeFromAnywhere wakes the multiplexer. Add and Stop are never called,
// since none of those ops submit further work or stop the loop.
type poolNotifier struct{ b *Backend }

func (n poolNotifier) Add(c *completion.Completion) error {
	return ioerrors.New(ioerrors.NotSupported, "pollset")
}
func (n poolNotifier) Stop()                                   {}
func (n poolNotifier) Wake()                                   { _ = n.b.m.wake() }
func (n poolNotifier) WakeFromAnywhere()                       { _ = n.b.m.wake() }
func (n poolNotifier) PushCompletion(c *completion.Completion) { n.b.PushCompletion(c) }

var _ completion.Notifier = poolNotifier{}

// Kind reports this backend's kind, used by loop for logging.
func (b *Backend) Kind() backend.Kind { return backend.KindPollset }

// RegisterWake is a no-op: pollset's wake is the multiplexer's own wake(),
// not a registered completion, since epoll/kqueue both expose a native
// cross-thread wake primitive (eventfd / EVFILT_USER).
func (b *Backend) RegisterWake(wake *completion.Completion) error { return nil }

func (b *Backend) Wake() error             { return b.m.wake() }
func (b *Backend) WakeFromAnywhere() error { return b.m.wake() }

func (b *Backend) Close() error { return b.m.close() }

// Cancel claims c through TryCancel and, on success, drops its readiness
// registration and timer so Poll never retries or delivers it. It returns
// false, leaving any registration in place, once c is no longer pending
// (the loop marks a completion running before handing it to Submit).
func (b *Backend) Cancel(c *completion.Completion) bool {
	if !c.TryCancel() {
		return false
	}
	for fd, p := range b.waiting {
		if p.c == c {
			b.m.remove(fd)
			delete(b.waiting, fd)
			break
		}
	}
	b.timers.Remove(c)
	return true
}

// Submit implements backend.Backend.Submit for every op this runtime
// supports on the readiness-poll path.
func (b *Backend) Submit(c *completion.Completion) (bool, error) {
	switch c.Op {
	case completion.OpNetOpen:
		fd, err := osshim.Socket(c.Params.Domain, c.Params.Type, c.Params.Protocol)
		return finishOrErr(c, err, func() { c.SetResult(completion.Result{Handle: fd}) })

	case completion.OpNetBind:
		err := osshim.Bind(c.Params.Fd, c.Params.Addr)
		return finishOrErr(c, err, func() { c.SetResult(completion.Result{}) })

	case completion.OpNetListen:
		err := osshim.ListenFD(c.Params.Fd, c.Params.Backlog)
		return finishOrErr(c, err, func() { c.SetResult(completion.Result{}) })

	case completion.OpNetAccept:
		return b.submitAccept(c)

	case completion.OpNetConnect:
		return b.submitConnect(c)

	case completion.OpNetRecv:
		return b.submitRecv(c)

	case completion.OpNetSend:
		return b.submitSend(c)

	case completion.OpNetRecvFrom:
		return b.submitRecvFrom(c)

	case completion.OpNetSendTo:
		return b.submitSendTo(c)

	case completion.OpNetClose:
		err := osshim.CloseSocket(c.Params.Fd)
		return finishOrErr(c, err, func() { c.SetResult(completion.Result{}) })

	case completion.OpNetShutdown:
		err := osshim.ShutdownSocket(c.Params.Fd, c.Params.Flags)
		return finishOrErr(c, err, func() { c.SetResult(completion.Result{}) })

	case completion.OpFileOpen, completion.OpFileClose, completion.OpFileRead,
		completion.OpFileWrite, completion.OpFileSync, completion.OpFileRename,
		completion.OpFileDelete:
		return b.submitFileOp(c)

	case completion.OpTimer:
		b.timers.Add(c)
		return false, nil

	default:
		c.SetError(ioerrors.NotSupported)
		return true, nil
	}
}

// submitFileOp offloads a filesystem op to the thread pool: unlike socket
// readiness, there is no EWOULDBLOCK retry path for files on this
// backend, so running them inline would block the single poll thread on
// every disk syscall.
func (b *Backend) submitFileOp(c *completion.Completion) (bool, error) {
	if b.pool == nil {
		c.SetError(ioerrors.NoThreadPool)
		return true, nil
	}
	c.Params.WorkFunc = fileWorkFunc(c.Op)
	c.Loop = poolNotifier{b}
	b.pool.Submit(c)
	return false, nil
}

func fileWorkFunc(op completion.Op) func(userdata any, c *completion.Completion) {
	return func(_ any, c *completion.Completion) {
		switch op {
		case completion.OpFileOpen:
			fd, err := osshim.OpenFile(c.Params.Path, c.Params.OpenFl, c.Params.Mode)
			setOrErr(c, err, func() { c.SetResult(completion.Result{Handle: fd}) })
		case completion.OpFileClose:
			err := osshim.CloseFD(c.Params.Fd)
			setOrErr(c, err, func() { c.SetResult(completion.Result{}) })
		case completion.OpFileRead:
			n, err := osshim.ReadFD(c.Params.Fd, firstBuf(c.Params.Vecs))
			setOrErr(c, err, func() { c.SetResult(completion.Result{N: n}) })
		case completion.OpFileWrite:
			n, err := osshim.WriteFD(c.Params.Fd, firstBuf(c.Params.Vecs))
			setOrErr(c, err, func() { c.SetResult(completion.Result{N: n}) })
		case completion.OpFileSync:
			err := osshim.Fsync(c.Params.Fd)
			setOrErr(c, err, func() { c.SetResult(completion.Result{}) })
		case completion.OpFileRename:
			err := osshim.Rename(c.Params.Path, c.Params.NewPath)
			setOrErr(c, err, func() { c.SetResult(completion.Result{}) })
		case completion.OpFileDelete:
			err := osshim.Remove(c.Params.Path)
			setOrErr(c, err, func() { c.SetResult(completion.Result{}) })
		}
	}
}

func setOrErr(c *completion.Completion, err error, onSuccess func()) {
	if err != nil {
		c.SetError(ioerrors.Unexpected)
		return
	}
	onSuccess()
}

// Poll waits for readiness and retries every pending op whose fd became
// ready, appending finished completions to batch. Pool-offloaded file ops
// delivered via PushCompletion since the last Poll call are drained first.
func (b *Backend) Poll(timeout time.Duration, batch *backend.Batch) (int, error) {
	b.doneMu.Lock()
	done := b.done
	b.done = nil
	b.doneMu.Unlock()
	n := 0
	for _, c := range done {
		batch.Add(c)
		n++
	}

	ready, err := b.m.wait(b.timers.NextTimeout(timeout))
	if err != nil {
		return n, err
	}
	for _, r := range ready {
		p, ok := b.waiting[r.fd]
		if !ok {
			continue
		}
		delete(b.waiting, r.fd)
		b.m.remove(r.fd)
		if done, _ := b.Submit(p.c); done {
			batch.Add(p.c)
			n++
		}
	}
	for _, c := range b.timers.Expired(time.Now()) {
		c.SetResult(completion.Result{})
		batch.Add(c)
		n++
	}
	return n, nil
}

func finishOrErr(c *completion.Completion, err error, onSuccess func()) (bool, error) {
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	onSuccess()
	return true, nil
}

func firstBuf(vecs []completion.IOVec) []byte {
	if len(vecs) == 0 {
		return nil
	}
	return vecs[0].Buf
}

func (b *Backend) registerPending(c *completion.Completion, fd int, write bool) {
	b.waiting[fd] = &pending{c: c, fd: fd, wantWrite: write}
	if err := b.m.add(fd, !write, write); err != nil {
		rt.Logger().Warn().Err(err).Int("fd", fd).Msg("pollset: register failed")
	}
}

func (b *Backend) submitAccept(c *completion.Completion) (bool, error) {
	nfd, err := osshim.AcceptFD(c.Params.Fd)
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			b.registerPending(c, c.Params.Fd, false)
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{Handle: nfd})
	return true, nil
}

func (b *Backend) submitConnect(c *completion.Completion) (bool, error) {
	err := osshim.ConnectFD(c.Params.Fd, c.Params.Addr)
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			b.registerPending(c, c.Params.Fd, true)
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{})
	return true, nil
}

func (b *Backend) submitRecv(c *completion.Completion) (bool, error) {
	n, err := osshim.RecvVec(c.Params.Fd, c.Params.Vecs, c.Params.Flags)
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			b.registerPending(c, c.Params.Fd, false)
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{N: n})
	return true, nil
}

func (b *Backend) submitSend(c *completion.Completion) (bool, error) {
	n, err := osshim.SendVec(c.Params.Fd, c.Params.Vecs, c.Params.Flags)
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			b.registerPending(c, c.Params.Fd, true)
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{N: n})
	return true, nil
}

func (b *Backend) submitRecvFrom(c *completion.Completion) (bool, error) {
	n, err := osshim.RecvFromVec(c.Params.Fd, c.Params.Vecs, c.Params.Addr, c.Params.Flags)
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			b.registerPending(c, c.Params.Fd, false)
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{N: n})
	return true, nil
}

func (b *Backend) submitSendTo(c *completion.Completion) (bool, error) {
	n, err := osshim.SendToVec(c.Params.Fd, c.Params.Vecs, c.Params.Addr, c.Params.Flags)
	if err != nil {
		if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
			b.registerPending(c, c.Params.Fd, true)
			return false, nil
		}
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{N: n})
	return true, nil
}
