//go:build !windows

// File: osshim/errno_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package osshim

import (
	"syscall"

	"github.com/momentics/hioloop/ioerrors"
	"golang.org/x/sys/unix"
)

// kindFromErrno converts a stdlib syscall.Errno (numerically identical to
// golang.org/x/sys/unix.Errno on every unix GOOS) into the normalized
// taxonomy via ioerrors.FromErrno.
func kindFromErrno(errno syscall.Errno) ioerrors.Kind {
	return ioerrors.FromErrno(unix.Errno(errno))
}

// Fsync flushes fd to stable storage.
func Fsync(fd int) error {
	if err := unix.Fsync(fd); err != nil {
		return translateErrno(err)
	}
	return nil
}
