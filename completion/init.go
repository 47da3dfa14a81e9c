// File: completion/init.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-operation constructors: one focused constructor per concern rather
// than one do-everything struct literal call site.

package completion

import "time"

// NewTimer arms a one-shot timer completion firing at deadline.
func NewTimer(deadline time.Time, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpTimer, Params: Params{Deadline: deadline}, UserData: userdata, Callback: cb}
}

// NewWork wraps fn as a thread-pool work item.
func NewWork(fn func(userdata any, c *Completion), userdata any, cb Callback) *Completion {
	return &Completion{Op: OpWork, Params: Params{WorkFunc: fn}, UserData: userdata, Callback: cb}
}

// NewCancel requests cancellation of target.
func NewCancel(target *Completion, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpCancel, Params: Params{Target: target}, UserData: userdata, Callback: cb}
}

// NewNetOpen creates a socket of the given domain/type/protocol.
func NewNetOpen(domain, typ, protocol int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetOpen, Params: Params{Domain: domain, Type: typ, Protocol: protocol}, UserData: userdata, Callback: cb}
}

// NewNetBind binds fd to addr.
func NewNetBind(fd int, addr *NetAddr, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetBind, Params: Params{Fd: fd, Addr: addr}, UserData: userdata, Callback: cb}
}

// NewNetListen marks fd listening with the given backlog.
func NewNetListen(fd, backlog int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetListen, Params: Params{Fd: fd, Backlog: backlog}, UserData: userdata, Callback: cb}
}

// NewNetAccept accepts one connection on the listening fd.
func NewNetAccept(fd int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetAccept, Params: Params{Fd: fd}, UserData: userdata, Callback: cb}
}

// NewNetConnect connects fd to addr.
func NewNetConnect(fd int, addr *NetAddr, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetConnect, Params: Params{Fd: fd, Addr: addr}, UserData: userdata, Callback: cb}
}

// NewNetRecv reads into vecs from fd.
func NewNetRecv(fd int, vecs []IOVec, flags int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetRecv, Params: Params{Fd: fd, Vecs: vecs, Flags: flags}, UserData: userdata, Callback: cb}
}

// NewNetSend writes vecs to fd.
func NewNetSend(fd int, vecs []IOVec, flags int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetSend, Params: Params{Fd: fd, Vecs: vecs, Flags: flags}, UserData: userdata, Callback: cb}
}

// NewNetRecvFrom reads into vecs from fd, recording the peer address into addr.
func NewNetRecvFrom(fd int, vecs []IOVec, addr *NetAddr, flags int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetRecvFrom, Params: Params{Fd: fd, Vecs: vecs, Addr: addr, Flags: flags}, UserData: userdata, Callback: cb}
}

// NewNetSendTo writes vecs to fd, targeting addr.
func NewNetSendTo(fd int, vecs []IOVec, addr *NetAddr, flags int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetSendTo, Params: Params{Fd: fd, Vecs: vecs, Addr: addr, Flags: flags}, UserData: userdata, Callback: cb}
}

// NewNetClose closes fd.
func NewNetClose(fd int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetClose, Params: Params{Fd: fd}, UserData: userdata, Callback: cb}
}

// NewNetShutdown shuts down fd per how (platform-defined: SHUT_RD/WR/RDWR).
func NewNetShutdown(fd, how int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetShutdown, Params: Params{Fd: fd, Flags: how}, UserData: userdata, Callback: cb}
}

// NewNetGetAddrInfo resolves host/service, writing up to len(results) records.
func NewNetGetAddrInfo(host, service string, results []AddrInfo, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetGetAddrInfo, Params: Params{Host: host, Service: service, Results: results}, UserData: userdata, Callback: cb}
}

// NewNetGetNameInfo reverse-resolves addr into hostBuf/serviceBuf.
func NewNetGetNameInfo(addr *NetAddr, hostBuf, serviceBuf []byte, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpNetGetNameInfo, Params: Params{Addr: addr, HostBuf: hostBuf, ServiceBuf: serviceBuf}, UserData: userdata, Callback: cb}
}

// NewFileOpen opens path with flags/mode.
func NewFileOpen(path string, flags int, mode uint32, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileOpen, Params: Params{Path: path, OpenFl: flags, Mode: mode}, UserData: userdata, Callback: cb}
}

// NewFileClose closes fd.
func NewFileClose(fd int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileClose, Params: Params{Fd: fd}, UserData: userdata, Callback: cb}
}

// NewFileRead reads into vecs from fd.
func NewFileRead(fd int, vecs []IOVec, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileRead, Params: Params{Fd: fd, Vecs: vecs}, UserData: userdata, Callback: cb}
}

// NewFileWrite writes vecs to fd.
func NewFileWrite(fd int, vecs []IOVec, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileWrite, Params: Params{Fd: fd, Vecs: vecs}, UserData: userdata, Callback: cb}
}

// NewFileSync flushes fd to stable storage.
func NewFileSync(fd int, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileSync, Params: Params{Fd: fd}, UserData: userdata, Callback: cb}
}

// NewFileRename renames path to newPath.
func NewFileRename(path, newPath string, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileRename, Params: Params{Path: path, NewPath: newPath}, UserData: userdata, Callback: cb}
}

// NewFileDelete removes path.
func NewFileDelete(path string, userdata any, cb Callback) *Completion {
	return &Completion{Op: OpFileDelete, Params: Params{Path: path}, UserData: userdata, Callback: cb}
}
