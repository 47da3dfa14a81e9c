// File: osshim/resolve.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// getaddrinfo/getnameinfo have no kernel-async path on any backend — every
// OS serves them synchronously from a resolver library, so they are always
// routed through the thread pool (Op.BlockingOnly). This file supplies the
// actual resolution using net.Resolver rather than cgo'ing
// getaddrinfo(3)/GetAddrInfoW directly: net.Resolver is the idiomatic Go
// way to reach the platform resolver without per-OS cgo.
package osshim

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/ioerrors"
)

// GetAddrInfo resolves host/service into up to len(results) AddrInfo
// records, returning the number written. Sockaddr bytes are encoded
// verbatim (AF_INET/AF_INET6 layout — DNS never resolves to a UNIX
// path, so AF_UNIX has no encode side here, only the decode side
// GetNameInfo and osshim's bind/connect helpers share); callers own that
// layer, not a net.Addr abstraction. A caller-supplied buffer too small
// to hold every resolved address fails with SystemResources rather than
// silently returning a truncated set.
func GetAddrInfo(ctx context.Context, host, service string, results []completion.AddrInfo) (int, error) {
	port, err := resolvePort(service)
	if err != nil {
		return 0, ioerrors.New(ioerrors.ServiceNotAvailableForSocketType, "getaddrinfo")
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		if dnsErr, ok := err.(*net.DNSError); ok && dnsErr.IsNotFound {
			return 0, ioerrors.New(ioerrors.UnknownHostName, "getaddrinfo")
		}
		return 0, ioerrors.New(ioerrors.TemporaryNameServerFailure, "getaddrinfo")
	}
	if len(ips) == 0 {
		return 0, ioerrors.New(ioerrors.NameHasNoUsableAddress, "getaddrinfo")
	}

	n := 0
	for _, ip := range ips {
		rec, ok := encodeAddrInfo(ip.IP, port)
		if !ok {
			continue
		}
		if n >= len(results) {
			return 0, ioerrors.New(ioerrors.SystemResources, "getaddrinfo")
		}
		results[n] = rec
		n++
	}
	if n == 0 {
		return 0, ioerrors.New(ioerrors.NameHasNoUsableAddress, "getaddrinfo")
	}
	return n, nil
}

// GetNameInfo reverse-resolves addr (a raw sockaddr), writing the
// numeric-or-resolved host into hostBuf and the numeric port into
// serviceBuf (service names are not looked up). Returns the written
// lengths. A UNIX-domain
// addr has no service to resolve; its path is copied into hostBuf as-is.
func GetNameInfo(ctx context.Context, addr *completion.NetAddr, hostBuf, serviceBuf []byte) (hostLen, svcLen int, err error) {
	d, ok := decodeSockaddr(addr.Storage)
	if !ok {
		return 0, 0, ioerrors.New(ioerrors.BadPathName, "getnameinfo")
	}
	if d.family == afUnix {
		return copy(hostBuf, d.path), 0, nil
	}

	host := d.ip.String()
	names, rerr := net.DefaultResolver.LookupAddr(ctx, d.ip.String())
	if rerr == nil && len(names) > 0 {
		host = names[0]
	}

	hostLen = copy(hostBuf, host)
	svcLen = copy(serviceBuf, strconv.Itoa(int(d.port)))
	return hostLen, svcLen, nil
}

func resolvePort(service string) (uint16, error) {
	if n, err := strconv.Atoi(service); err == nil {
		return uint16(n), nil
	}
	port, err := net.LookupPort("tcp", service)
	if err != nil {
		return 0, err
	}
	return uint16(port), nil
}

// encodeAddrInfo lays out ip/port as a raw sockaddr_in or sockaddr_in6,
// matching the byte layout the corresponding backend's socket syscalls
// expect.
func encodeAddrInfo(ip net.IP, port uint16) (completion.AddrInfo, bool) {
	if v4 := ip.To4(); v4 != nil {
		buf := make([]byte, 16)
		buf[0] = afInet
		binary.BigEndian.PutUint16(buf[2:4], port)
		copy(buf[4:8], v4)
		return completion.AddrInfo{
			Family:   afInet,
			SockType: 1, // SOCK_STREAM
			Protocol: 6, // IPPROTO_TCP
			Addr:     completion.NetAddr{Storage: buf},
		}, true
	}
	if v6 := ip.To16(); v6 != nil {
		buf := make([]byte, 28)
		buf[0] = afInet6
		binary.BigEndian.PutUint16(buf[2:4], port)
		copy(buf[8:24], v6)
		return completion.AddrInfo{
			Family:   afInet6,
			SockType: 1,
			Protocol: 6,
			Addr:     completion.NetAddr{Storage: buf},
		}, true
	}
	return completion.AddrInfo{}, false
}

const (
	afInet  = 2
	afInet6 = 10
	afUnix  = 1
)

// sockaddr is the decoded form of a raw sockaddr: either an ip/port pair
// (AF_INET/AF_INET6) or a path (AF_UNIX).
type sockaddr struct {
	family int
	ip     net.IP
	port   uint16
	path   string
}

func decodeSockaddr(raw []byte) (sockaddr, bool) {
	if len(raw) >= 8 && raw[0] == afInet {
		port := binary.BigEndian.Uint16(raw[2:4])
		ip := net.IP(append([]byte(nil), raw[4:8]...))
		return sockaddr{family: afInet, ip: ip, port: port}, true
	}
	if len(raw) >= 24 && raw[0] == afInet6 {
		port := binary.BigEndian.Uint16(raw[2:4])
		ip := net.IP(append([]byte(nil), raw[8:24]...))
		return sockaddr{family: afInet6, ip: ip, port: port}, true
	}
	if len(raw) >= 2 && raw[0] == afUnix {
		end := len(raw)
		for i := 2; i < len(raw); i++ {
			if raw[i] == 0 {
				end = i
				break
			}
		}
		return sockaddr{family: afUnix, path: string(raw[2:end])}, true
	}
	return sockaddr{}, false
}

// encodeUnixSockaddr lays out path as a raw sockaddr_un: family byte
// followed by the path, matching decodeSockaddr's AF_UNIX branch.
func encodeUnixSockaddr(path string) []byte {
	buf := make([]byte, 2+len(path)+1)
	buf[0] = afUnix
	copy(buf[2:], path)
	return buf
}
