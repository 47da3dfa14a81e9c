//go:build !linux && !windows

// File: pool/numapool_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// No-op NUMA allocator for platforms without a NUMA syscall binding here.

package pool

func createNUMAAllocator() NUMAAllocator { return nil }
