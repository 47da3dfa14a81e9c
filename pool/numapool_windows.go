//go:build windows

// File: pool/numapool_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows NUMA allocator using VirtualAllocExNuma/VirtualFree.

package pool

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocExNuma  = kernel32.NewProc("VirtualAllocExNuma")
	procVirtualFree         = kernel32.NewProc("VirtualFree")
	procGetCurrentProcessID = kernel32.NewProc("GetCurrentProcess")
)

type windowsNUMAAllocator struct{}

func createNUMAAllocator() NUMAAllocator { return &windowsNUMAAllocator{} }

func (w *windowsNUMAAllocator) Alloc(size, node int) ([]byte, error) {
	hProc, _, _ := procGetCurrentProcessID.Call()
	ptr, _, callErr := procVirtualAllocExNuma.Call(
		hProc,
		0,
		uintptr(size),
		uintptr(windows.MEM_RESERVE|windows.MEM_COMMIT),
		uintptr(windows.PAGE_READWRITE),
		uintptr(node),
	)
	if ptr == 0 {
		return nil, errors.New("pool: VirtualAllocExNuma failed: " + callErr.Error())
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func (w *windowsNUMAAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	procVirtualFree.Call(uintptr(unsafe.Pointer(&buf[0])), 0, uintptr(windows.MEM_RELEASE))
}

func (w *windowsNUMAAllocator) Nodes() (int, error) {
	return 1, nil
}
