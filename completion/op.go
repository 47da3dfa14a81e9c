// File: completion/op.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package completion

// Op tags the operation a Completion describes. The set is closed: backends
// switch over it exhaustively and fail unknown/unsupported members with
// ioerrors.NotSupported rather than silently ignoring them.
type Op int

const (
	OpTimer Op = iota
	OpAsyncWake
	OpWork
	OpCancel
	OpNetOpen
	OpNetBind
	OpNetListen
	OpNetAccept
	OpNetConnect
	OpNetRecv
	OpNetSend
	OpNetRecvFrom
	OpNetSendTo
	OpNetClose
	OpNetShutdown
	OpNetGetAddrInfo
	OpNetGetNameInfo
	OpFileOpen
	OpFileClose
	OpFileRead
	OpFileWrite
	OpFileSync
	OpFileRename
	OpFileDelete
	opCount
)

var opNames = [opCount]string{
	OpTimer:          "timer",
	OpAsyncWake:      "async-wake",
	OpWork:           "work",
	OpCancel:         "cancel",
	OpNetOpen:        "net-open",
	OpNetBind:        "net-bind",
	OpNetListen:      "net-listen",
	OpNetAccept:      "net-accept",
	OpNetConnect:     "net-connect",
	OpNetRecv:        "net-recv",
	OpNetSend:        "net-send",
	OpNetRecvFrom:    "net-recvfrom",
	OpNetSendTo:      "net-sendto",
	OpNetClose:       "net-close",
	OpNetShutdown:    "net-shutdown",
	OpNetGetAddrInfo: "net-getaddrinfo",
	OpNetGetNameInfo: "net-getnameinfo",
	OpFileOpen:       "file-open",
	OpFileClose:      "file-close",
	OpFileRead:       "file-read",
	OpFileWrite:      "file-write",
	OpFileSync:       "file-sync",
	OpFileRename:     "file-rename",
	OpFileDelete:     "file-delete",
}

func (o Op) String() string {
	if o < 0 || int(o) >= int(opCount) {
		return "op(unknown)"
	}
	return opNames[o]
}

// Synchronous reports whether this op completes without waiting on poll:
// the net ops listed here finish inline in Backend.Submit, and OpCancel is
// resolved by the loop itself without reaching Backend.Submit.
func (o Op) Synchronous() bool {
	switch o {
	case OpNetBind, OpNetListen, OpNetClose, OpNetShutdown, OpCancel:
		return true
	default:
		return false
	}
}

// BlockingOnly reports whether this op has no kernel-async path on any
// backend and must always be dispatched to the thread pool.
func (o Op) BlockingOnly() bool {
	switch o {
	case OpNetGetAddrInfo, OpNetGetNameInfo:
		return true
	default:
		return false
	}
}
