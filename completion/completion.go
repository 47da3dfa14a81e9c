// File: completion/completion.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package completion implements the Completion record: the tagged-variant
// descriptor of one pending operation, its parameters, its result slot, and
// its per-backend scratch area.
package completion

import "time"

// Notifier is the slice of Loop a Completion's callback and a thread-pool
// worker need: enough to submit further work, stop the loop, and — for
// pool-offloaded items — push a finished item back and wake a blocked poll.
// The concrete *loop.Loop implements this; kept as an interface here so
// completion never imports loop (which imports completion).
type Notifier interface {
	Add(c *Completion) error
	Stop()
	Wake()
	WakeFromAnywhere()
	PushCompletion(c *Completion)
}

// Callback is invoked exactly once when a Completion terminates, unless it
// was canceled before pickup.
type Callback func(l Notifier, c *Completion)

// NetAddr borrows a platform sockaddr exactly as the caller laid it out;
// this package never copies or interprets it beyond length.
type NetAddr struct {
	Storage []byte // raw sockaddr bytes, caller-owned
}

// IOVec is a single caller-owned buffer participating in a vectored
// recv/send/read/write.
type IOVec struct {
	Buf []byte
}

// Params holds every operation's input parameters. Only the fields for
// c.Op are meaningful; this mirrors Result's tagged-union shape and keeps
// Completion a single fixed-size, allocation-free struct.
type Params struct {
	// Timer
	Deadline time.Time

	// Net open/accept/connect
	Domain, Type, Protocol int
	Addr                   *NetAddr
	Backlog                int
	Fd                     int // target fd for ops that act on an existing handle

	// Recv/Send/file read/write
	Vecs  []IOVec
	Flags int

	// Path-based file ops
	Path    string
	NewPath string // file-rename target
	OpenFl  int
	Mode    uint32

	// getaddrinfo / getnameinfo
	Host    string
	Service string
	Results []AddrInfo // caller-supplied buffer, sized by the caller
	// HostBuf/ServiceBuf are caller-supplied buffers for getnameinfo.
	HostBuf    []byte
	ServiceBuf []byte

	// Work (thread-pool offload)
	WorkFunc func(userdata any, c *Completion)

	// Cancel
	Target *Completion

	// Multishot requests repeated delivery for ops that support it
	// (accept today). backend/uring rejects it with ioerrors.NotSupported;
	// backend/pollset and backend/iocp ignore it and deliver one accepted
	// connection per submission.
	Multishot bool
}

// AddrInfo mirrors one getaddrinfo result record.
type AddrInfo struct {
	Family   int
	SockType int
	Protocol int
	Addr     NetAddr
}

// Completion is the caller-owned descriptor of one pending async operation.
// Its storage must outlive the in-flight period; the loop and backend only
// ever borrow it between Add and the callback firing.
type Completion struct {
	Op       Op
	Params   Params
	UserData any
	Callback Callback

	// Internal is per-backend scratch (an OVERLAPPED-equivalent struct, a
	// nested work item, ring bookkeeping). Lifetime coincides with the
	// Completion's.
	Internal any

	// Loop is set when this Completion is offloaded to the thread pool, so
	// a worker can push the finished item back and wake the loop. It is
	// nil for completions the backend itself completes.
	Loop Notifier

	state     int32 // atomic; see state.go
	result    Result
	hasResult bool

	next *Completion // intrusive queue link; see Next/SetNext
}

// Next implements queue.Linked.
func (c *Completion) Next() *Completion { return c.next }

// SetNext implements queue.Linked.
func (c *Completion) SetNext(n *Completion) { c.next = n }

// Reset clears a Completion back to its zero, pending state so it can be
// reused for a new operation. The caller must not call this while the
// Completion is in flight.
func (c *Completion) Reset() {
	*c = Completion{}
}
