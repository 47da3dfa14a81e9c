// File: osshim/resolve_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package osshim

import (
	"context"
	"net"
	"testing"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/ioerrors"
)

func TestDecodeSockaddrRoundTripsUnixPath(t *testing.T) {
	raw := encodeUnixSockaddr("/tmp/hioloop-test.sock")

	d, ok := decodeSockaddr(raw)
	if !ok {
		t.Fatal("decodeSockaddr rejected a well-formed AF_UNIX sockaddr")
	}
	if d.family != afUnix {
		t.Fatalf("family = %d, want %d", d.family, afUnix)
	}
	if d.path != "/tmp/hioloop-test.sock" {
		t.Fatalf("path = %q, want /tmp/hioloop-test.sock", d.path)
	}
}

func TestDecodeSockaddrRoundTripsInet4(t *testing.T) {
	want := net.IPv4(127, 0, 0, 1)
	rec, ok := encodeAddrInfo(want, 8080)
	if !ok {
		t.Fatal("encodeAddrInfo rejected a valid IPv4 address")
	}

	d, ok := decodeSockaddr(rec.Addr.Storage)
	if !ok {
		t.Fatal("decodeSockaddr rejected a well-formed AF_INET sockaddr")
	}
	if d.family != afInet || d.port != 8080 || !d.ip.Equal(want) {
		t.Fatalf("decoded %+v, want ip %v port 8080", d, want)
	}
}

func TestGetNameInfoReturnsUnixPathAsHost(t *testing.T) {
	raw := encodeUnixSockaddr("/tmp/hioloop-test.sock")
	addr := &completion.NetAddr{Storage: raw}
	hostBuf := make([]byte, 64)

	hostLen, svcLen, err := GetNameInfo(context.Background(), addr, hostBuf, nil)
	if err != nil {
		t.Fatalf("GetNameInfo: %v", err)
	}
	if svcLen != 0 {
		t.Fatalf("svcLen = %d, want 0 for a UNIX-domain address", svcLen)
	}
	if got := string(hostBuf[:hostLen]); got != "/tmp/hioloop-test.sock" {
		t.Fatalf("host = %q, want /tmp/hioloop-test.sock", got)
	}
}

// TestGetAddrInfoReportsSystemResourcesOnSmallBuffer verifies a
// caller-supplied results buffer too small for every resolved address
// fails loudly instead of silently returning a truncated set.
func TestGetAddrInfoReportsSystemResourcesOnSmallBuffer(t *testing.T) {
	results := make([]completion.AddrInfo, 0)

	_, err := GetAddrInfo(context.Background(), "127.0.0.1", "80", results)
	if err == nil {
		t.Fatal("expected an error for a zero-length results buffer")
	}
	k, ok := ioerrors.As(err)
	if !ok || k != ioerrors.SystemResources {
		t.Fatalf("got %v, want ioerrors.SystemResources", err)
	}
}

func TestGetAddrInfoResolvesLiteralIP(t *testing.T) {
	results := make([]completion.AddrInfo, 1)

	n, err := GetAddrInfo(context.Background(), "127.0.0.1", "80", results)
	if err != nil {
		t.Fatalf("GetAddrInfo: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if results[0].Family != afInet {
		t.Fatalf("Family = %d, want %d", results[0].Family, afInet)
	}
}
