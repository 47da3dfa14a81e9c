//go:build linux && !cgo

// File: pool/numapool_linux_nocgo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Falls back to a plain allocator when cgo (and therefore libnuma) is
// unavailable on a Linux build.

package pool

func createNUMAAllocator() NUMAAllocator { return nil }
