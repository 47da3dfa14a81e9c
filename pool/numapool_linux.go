//go:build linux && cgo

// File: pool/numapool_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux NUMA allocator using libnuma via cgo. Built only when cgo is
// available; numapool_linux_nocgo.go covers a cgo-disabled Linux build.

package pool

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <stdlib.h>

void *go_numa_alloc(int size, int node) {
	if (numa_available() == -1 || node < 0) {
		return malloc(size);
	}
	return numa_alloc_onnode(size, node);
}

void go_numa_free(void *mem, int size, int node) {
	if (numa_available() == -1 || node < 0) {
		free(mem);
		return;
	}
	numa_free(mem, size);
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

type linuxNUMAAllocator struct{}

func createNUMAAllocator() NUMAAllocator { return &linuxNUMAAllocator{} }

func (l *linuxNUMAAllocator) Alloc(size, node int) ([]byte, error) {
	ptr := C.go_numa_alloc(C.int(size), C.int(node))
	if ptr == nil {
		return nil, fmt.Errorf("pool: numa_alloc_onnode failed")
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (l *linuxNUMAAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	C.go_numa_free(unsafe.Pointer(&buf[0]), C.int(len(buf)), -1)
}

func (l *linuxNUMAAllocator) Nodes() (int, error) {
	n := C.numa_max_node()
	if n < 0 {
		return 1, fmt.Errorf("pool: NUMA not available")
	}
	return int(n) + 1, nil
}
