//go:build windows

// File: backend/iocp/iocp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package iocp is the Windows backend: a real
// CreateIoCompletionPort/GetQueuedCompletionStatus port, opened once per
// Backend rather than shared process-wide. Full overlapped AcceptEx/
// WSARecv wiring — lazily resolved per address family via WSAIoctl — is
// not completed here; recv/send/accept/connect instead use the same
// inline-syscall-with-retry fallback backend/pollset uses, with
// PostQueuedCompletionStatus supplying the wake primitive.
package iocp

import (
	"sync"
	"time"

	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/internal/timerq"
	"github.com/momentics/hioloop/ioerrors"
	"github.com/momentics/hioloop/osshim"
	"github.com/momentics/hioloop/threadpool"
	"golang.org/x/sys/windows"
)

const wakeKey = ^uintptr(0)

// Backend implements backend.Backend over a Windows I/O completion port.
type Backend struct {
	port    windows.Handle
	pending map[int]*completion.Completion // fd -> blocked completion, retried each Poll
	timers  *timerq.Queue
	pool    *threadpool.Pool

	doneMu sync.Mutex
	done   []*completion.Completion // pool-offloaded file ops, delivered via PushCompletion
}

// New creates the completion port. pool, if non-nil, is where filesystem
// ops are offloaded, since ReadFile/WriteFile here are plain blocking
// calls with no overlapped plumbing.
func New(pool *threadpool.Pool) (*Backend, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return &Backend{port: port, pending: make(map[int]*completion.Completion), timers: timerq.New(), pool: pool}, nil
}

// PushCompletion lets a pool worker deliver a finished filesystem op back
// to this backend's own Poll.
func (b *Backend) PushCompletion(c *completion.Completion) {
	b.doneMu.Lock()
	b.done = append(b.done, c)
	b.doneMu.Unlock()
}

// poolNotifier is the completion.Notifier set as c.Loop on this backend's
// pool-offloaded file ops: PushCompletion queues the op for Poll and
// WakeFromAnywhere posts to the port. Add and Stop are never called.
type poolNotifier struct{ b *Backend }

func (n poolNotifier) Add(c *completion.Completion) error {
	return ioerrors.New(ioerrors.NotSupported, "iocp")
}
func (n poolNotifier) Stop()                                   {}
func (n poolNotifier) Wake()                                   { _ = n.b.post() }
func (n poolNotifier) WakeFromAnywhere()                       { _ = n.b.post() }
func (n poolNotifier) PushCompletion(c *completion.Completion) { n.b.PushCompletion(c) }

var _ completion.Notifier = poolNotifier{}

// Kind reports this backend's kind.
func (b *Backend) Kind() backend.Kind { return backend.KindIOCP }

// RegisterWake is a no-op: PostQueuedCompletionStatus with wakeKey is the
// wake primitive, needing no prior registration.
func (b *Backend) RegisterWake(wake *completion.Completion) error { return nil }

func (b *Backend) Wake() error             { return b.post() }
func (b *Backend) WakeFromAnywhere() error { return b.post() }

func (b *Backend) post() error {
	return windows.PostQueuedCompletionStatus(b.port, 0, wakeKey, nil)
}

// Close releases the completion port.
func (b *Backend) Close() error {
	return windows.CloseHandle(b.port)
}

// Cancel marks c canceled; its fd entry in pending is dropped so the next
// Poll never retries it.
func (b *Backend) Cancel(c *completion.Completion) bool {
	if !c.TryCancel() {
		return false
	}
	for fd, p := range b.pending {
		if p == c {
			delete(b.pending, fd)
			break
		}
	}
	b.timers.Remove(c)
	return true
}

// Submit associates new sockets/handles with the port on open, and runs
// every other op inline, falling back to retry-via-Poll on WouldBlock.
func (b *Backend) Submit(c *completion.Completion) (bool, error) {
	switch c.Op {
	case completion.OpNetOpen:
		fd, err := osshim.Socket(c.Params.Domain, c.Params.Type, c.Params.Protocol)
		if err != nil {
			c.SetError(ioerrors.Unexpected)
			return true, nil
		}
		if _, err := windows.CreateIoCompletionPort(windows.Handle(fd), b.port, 0, 0); err != nil {
			c.SetError(ioerrors.Unexpected)
			return true, nil
		}
		c.SetResult(completion.Result{Handle: fd})
		return true, nil

	case completion.OpNetBind:
		return b.finish(c, osshim.Bind(c.Params.Fd, c.Params.Addr))
	case completion.OpNetListen:
		return b.finish(c, osshim.ListenFD(c.Params.Fd, c.Params.Backlog))
	case completion.OpNetClose:
		return b.finish(c, osshim.CloseSocket(c.Params.Fd))
	case completion.OpNetShutdown:
		return b.finish(c, osshim.ShutdownSocket(c.Params.Fd, c.Params.Flags))

	case completion.OpNetAccept:
		nfd, err := osshim.AcceptFD(c.Params.Fd)
		if err != nil {
			return b.retryOrFail(c, c.Params.Fd, err)
		}
		c.SetResult(completion.Result{Handle: nfd})
		return true, nil

	case completion.OpNetConnect:
		err := osshim.ConnectFD(c.Params.Fd, c.Params.Addr)
		if err != nil {
			return b.retryOrFail(c, c.Params.Fd, err)
		}
		c.SetResult(completion.Result{})
		return true, nil

	case completion.OpNetRecv:
		n, err := osshim.RecvVec(c.Params.Fd, c.Params.Vecs, c.Params.Flags)
		if err != nil {
			return b.retryOrFail(c, c.Params.Fd, err)
		}
		c.SetResult(completion.Result{N: n})
		return true, nil

	case completion.OpNetSend:
		n, err := osshim.SendVec(c.Params.Fd, c.Params.Vecs, c.Params.Flags)
		if err != nil {
			return b.retryOrFail(c, c.Params.Fd, err)
		}
		c.SetResult(completion.Result{N: n})
		return true, nil

	case completion.OpNetRecvFrom:
		n, err := osshim.RecvFromVec(c.Params.Fd, c.Params.Vecs, c.Params.Addr, c.Params.Flags)
		if err != nil {
			return b.retryOrFail(c, c.Params.Fd, err)
		}
		c.SetResult(completion.Result{N: n})
		return true, nil

	case completion.OpNetSendTo:
		n, err := osshim.SendToVec(c.Params.Fd, c.Params.Vecs, c.Params.Addr, c.Params.Flags)
		if err != nil {
			return b.retryOrFail(c, c.Params.Fd, err)
		}
		c.SetResult(completion.Result{N: n})
		return true, nil

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

// submitFileOp offloads a filesystem op to the thread pool: ReadFile/
// WriteFile-equivalent calls here are plain blocking syscalls with no
// overlapped plumbing, so running them on the loop's own thread would
// stall every other completion behind them.
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

func (b *Backend) finish(c *completion.Completion, err error) (bool, error) {
	if err != nil {
		c.SetError(ioerrors.Unexpected)
		return true, nil
	}
	c.SetResult(completion.Result{})
	return true, nil
}

func (b *Backend) retryOrFail(c *completion.Completion, fd int, err error) (bool, error) {
	if k, ok := ioerrors.As(err); ok && k == ioerrors.WouldBlock {
		b.pending[fd] = c
		return false, nil
	}
	c.SetError(ioerrors.Unexpected)
	return true, nil
}

func firstBuf(vecs []completion.IOVec) []byte {
	if len(vecs) == 0 {
		return nil
	}
	return vecs[0].Buf
}

// Poll blocks on GetQueuedCompletionStatus for wake/timer purposes, then
// retries every op still pending from a prior WouldBlock.
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

	timeout = b.timers.NextTimeout(timeout)
	var bytes, key uint32
	var overlapped *windows.Overlapped
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout / time.Millisecond)
	}
	_ = windows.GetQueuedCompletionStatus(b.port, &bytes, &key, &overlapped, ms)

	for fd, c := range b.pending {
		if done, _ := b.Submit(c); done {
			delete(b.pending, fd)
			batch.Add(c)
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

var _ backend.Backend = (*Backend)(nil)
