//go:build windows

// File: osshim/socket_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket primitives for backend/iocp, simplified to synchronous Winsock
// calls rather than AcceptEx/WSARecv — backend/iocp calls these inline
// and retries a would-block result on its next Poll; no OVERLAPPED path
// is built on top of them.
package osshim

import (
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/ioerrors"
	"golang.org/x/sys/windows"
)

// Socket creates a non-blocking Winsock socket.
func Socket(domain, typ, protocol int) (int, error) {
	fd, err := windows.Socket(domain, typ, protocol)
	if err != nil {
		return -1, translateErrno(err)
	}
	if err := windows.SetNonblock(fd, true); err != nil {
		windows.Closesocket(fd)
		return -1, translateErrno(err)
	}
	return int(fd), nil
}

func Bind(fd int, addr *completion.NetAddr) error {
	sa, err := decodeRawSockaddr(addr.Storage)
	if err != nil {
		return err
	}
	if err := windows.Bind(windows.Handle(fd), sa); err != nil {
		return translateErrno(err)
	}
	return nil
}

func ListenFD(fd, backlog int) error {
	if err := windows.Listen(windows.Handle(fd), backlog); err != nil {
		return translateErrno(err)
	}
	return nil
}

func AcceptFD(fd int) (int, error) {
	nfd, _, err := windows.Accept(windows.Handle(fd))
	if err != nil {
		return -1, translateErrno(err)
	}
	return int(nfd), nil
}

func ConnectFD(fd int, addr *completion.NetAddr) error {
	sa, err := decodeRawSockaddr(addr.Storage)
	if err != nil {
		return err
	}
	if err := windows.Connect(windows.Handle(fd), sa); err != nil {
		return translateErrno(err)
	}
	return nil
}

func CloseSocket(fd int) error {
	if err := windows.Closesocket(windows.Handle(fd)); err != nil {
		return translateErrno(err)
	}
	return nil
}

func ShutdownSocket(fd, how int) error {
	if err := windows.Shutdown(windows.Handle(fd), how); err != nil {
		return translateErrno(err)
	}
	return nil
}

func RecvVec(fd int, vecs []completion.IOVec, flags int) (int, error) {
	total := 0
	for _, v := range vecs {
		if len(v.Buf) == 0 {
			continue
		}
		n, _, err := windows.Recvfrom(windows.Handle(fd), v.Buf, flags)
		if err != nil {
			return total, translateErrno(err)
		}
		total += n
	}
	return total, nil
}

func SendVec(fd int, vecs []completion.IOVec, flags int) (int, error) {
	total := 0
	for _, v := range vecs {
		if len(v.Buf) == 0 {
			continue
		}
		if err := windows.Sendto(windows.Handle(fd), v.Buf, flags, nil); err != nil {
			return total, translateErrno(err)
		}
		total += len(v.Buf)
	}
	return total, nil
}

func RecvFromVec(fd int, vecs []completion.IOVec, addr *completion.NetAddr, flags int) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}
	n, from, err := windows.Recvfrom(windows.Handle(fd), vecs[0].Buf, flags)
	if err != nil {
		return n, translateErrno(err)
	}
	addr.Storage = encodeRawSockaddr(from)
	return n, nil
}

func SendToVec(fd int, vecs []completion.IOVec, addr *completion.NetAddr, flags int) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}
	sa, err := decodeRawSockaddr(addr.Storage)
	if err != nil {
		return 0, err
	}
	if err := windows.Sendto(windows.Handle(fd), vecs[0].Buf, flags, sa); err != nil {
		return 0, translateErrno(err)
	}
	return len(vecs[0].Buf), nil
}

func decodeRawSockaddr(raw []byte) (windows.Sockaddr, error) {
	d, ok := decodeSockaddr(raw)
	if !ok {
		return nil, ioerrors.New(ioerrors.BadPathName, "sockaddr")
	}
	switch d.family {
	case afUnix:
		return &windows.SockaddrUnix{Name: d.path}, nil
	case afInet:
		sa := &windows.SockaddrInet4{Port: int(d.port)}
		copy(sa.Addr[:], d.ip.To4())
		return sa, nil
	default:
		sa := &windows.SockaddrInet6{Port: int(d.port)}
		copy(sa.Addr[:], d.ip.To16())
		return sa, nil
	}
}

func encodeRawSockaddr(sa windows.Sockaddr) []byte {
	switch s := sa.(type) {
	case *windows.SockaddrInet4:
		rec, _ := encodeAddrInfo(s.Addr[:], uint16(s.Port))
		return rec.Addr.Storage
	case *windows.SockaddrInet6:
		rec, _ := encodeAddrInfo(s.Addr[:], uint16(s.Port))
		return rec.Addr.Storage
	case *windows.SockaddrUnix:
		return encodeUnixSockaddr(s.Name)
	default:
		return nil
	}
}
