//go:build !windows

// File: osshim/socket_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking socket primitives shared by backend/pollset and
// backend/uring on Linux/Darwin/BSD. Covers the socket setup
// (AF_INET/AF_INET6, SOCK_STREAM|SOCK_NONBLOCK) for every domain/type
// OpNetOpen accepts, not just IPv4 TCP. No socket options such as
// TCP_NODELAY are set.
package osshim

import (
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/ioerrors"
	"golang.org/x/sys/unix"
)

// Socket creates a non-blocking socket of the given domain/type/protocol.
func Socket(domain, typ, protocol int) (int, error) {
	fd, err := unix.Socket(domain, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, protocol)
	if err != nil {
		return -1, translateErrno(err)
	}
	return fd, nil
}

// Bind binds fd to addr's raw sockaddr bytes.
func Bind(fd int, addr *completion.NetAddr) error {
	sa, err := decodeRawSockaddr(addr.Storage)
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return translateErrno(err)
	}
	return nil
}

// ListenFD marks fd listening with the given backlog.
func ListenFD(fd, backlog int) error {
	if err := unix.Listen(fd, backlog); err != nil {
		return translateErrno(err)
	}
	return nil
}

// AcceptFD accepts one pending connection on fd, returning the new
// non-blocking fd. Returns ioerrors.WouldBlock if none is pending yet.
func AcceptFD(fd int) (int, error) {
	nfd, _, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, translateErrno(err)
	}
	return nfd, nil
}

// ConnectFD begins connecting fd to addr. A non-blocking connect in
// progress surfaces as ioerrors.WouldBlock; the caller must wait for
// writability before treating the connection as established.
func ConnectFD(fd int, addr *completion.NetAddr) error {
	sa, err := decodeRawSockaddr(addr.Storage)
	if err != nil {
		return err
	}
	if err := unix.Connect(fd, sa); err != nil {
		return translateErrno(err)
	}
	return nil
}

// CloseSocket closes a socket fd.
func CloseSocket(fd int) error {
	if err := unix.Close(fd); err != nil {
		return translateErrno(err)
	}
	return nil
}

// ShutdownSocket shuts fd down per how (unix.SHUT_RD/WR/RDWR).
func ShutdownSocket(fd, how int) error {
	if err := unix.Shutdown(fd, how); err != nil {
		return translateErrno(err)
	}
	return nil
}

// RecvVec reads into vecs from fd using readv for true vectored I/O.
func RecvVec(fd int, vecs []completion.IOVec, flags int) (int, error) {
	iov := toIovec(vecs)
	if len(iov) == 0 {
		return 0, nil
	}
	n, err := unix.Readv(fd, iov)
	if err != nil {
		return n, translateErrno(err)
	}
	return n, nil
}

// SendVec writes vecs to fd using writev for true vectored I/O.
func SendVec(fd int, vecs []completion.IOVec, flags int) (int, error) {
	iov := toIovec(vecs)
	if len(iov) == 0 {
		return 0, nil
	}
	n, err := unix.Writev(fd, iov)
	if err != nil {
		return n, translateErrno(err)
	}
	return n, nil
}

// RecvFromVec reads into vecs[0] only, recording the peer address into
// addr.
func RecvFromVec(fd int, vecs []completion.IOVec, addr *completion.NetAddr, flags int) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}
	n, from, err := unix.Recvfrom(fd, vecs[0].Buf, flags)
	if err != nil {
		return n, translateErrno(err)
	}
	addr.Storage = encodeRawSockaddr(from)
	return n, nil
}

// SendToVec writes vecs[0] only to fd, targeting addr.
func SendToVec(fd int, vecs []completion.IOVec, addr *completion.NetAddr, flags int) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}
	sa, err := decodeRawSockaddr(addr.Storage)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(fd, vecs[0].Buf, flags, sa); err != nil {
		return 0, translateErrno(err)
	}
	return len(vecs[0].Buf), nil
}

func toIovec(vecs []completion.IOVec) [][]byte {
	out := make([][]byte, 0, len(vecs))
	for _, v := range vecs {
		if len(v.Buf) > 0 {
			out = append(out, v.Buf)
		}
	}
	return out
}

func decodeRawSockaddr(raw []byte) (unix.Sockaddr, error) {
	d, ok := decodeSockaddr(raw)
	if !ok {
		return nil, ioerrors.New(ioerrors.BadPathName, "sockaddr")
	}
	switch d.family {
	case afUnix:
		return &unix.SockaddrUnix{Name: d.path}, nil
	case afInet:
		sa := &unix.SockaddrInet4{Port: int(d.port)}
		copy(sa.Addr[:], d.ip.To4())
		return sa, nil
	default:
		sa := &unix.SockaddrInet6{Port: int(d.port)}
		copy(sa.Addr[:], d.ip.To16())
		return sa, nil
	}
}

func encodeRawSockaddr(sa unix.Sockaddr) []byte {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		rec, _ := encodeAddrInfo(s.Addr[:], uint16(s.Port))
		return rec.Addr.Storage
	case *unix.SockaddrInet6:
		rec, _ := encodeAddrInfo(s.Addr[:], uint16(s.Port))
		return rec.Addr.Storage
	case *unix.SockaddrUnix:
		return encodeUnixSockaddr(s.Name)
	default:
		return nil
	}
}
