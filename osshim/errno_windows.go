//go:build windows

// File: osshim/errno_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package osshim

import (
	"syscall"

	"github.com/momentics/hioloop/ioerrors"
	"golang.org/x/sys/windows"
)

// kindFromErrno converts a stdlib syscall.Errno into the normalized
// taxonomy via ioerrors.FromWindowsError, which expects a
// golang.org/x/sys/windows.Errno.
func kindFromErrno(errno syscall.Errno) ioerrors.Kind {
	return ioerrors.FromWindowsError(windows.Errno(errno))
}

// Fsync flushes fd to stable storage.
func Fsync(fd int) error {
	if err := windows.FlushFileBuffers(windows.Handle(fd)); err != nil {
		return translateErrno(err)
	}
	return nil
}
