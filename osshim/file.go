// File: osshim/file.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package osshim is the thin syscall-facing layer: every backend calls
// through here instead of touching golang.org/x/sys directly, so error
// normalization into ioerrors.Kind happens in exactly one place per
// concern, covering the full op set a completion backend needs.
package osshim

import (
	"os"
	"syscall"

	"github.com/momentics/hioloop/ioerrors"
)

// OpenFile opens path with flags/mode, returning a raw fd the caller owns.
func OpenFile(path string, flags int, mode uint32) (int, error) {
	f, err := os.OpenFile(path, flags, os.FileMode(mode))
	if err != nil {
		return -1, translatePathErr(err)
	}
	return int(f.Fd()), nil
}

// CloseFD closes fd.
func CloseFD(fd int) error {
	if err := syscall.Close(fd); err != nil {
		return translateErrno(err)
	}
	return nil
}

// ReadFD reads into buf from fd at the current offset.
func ReadFD(fd int, buf []byte) (int, error) {
	n, err := syscall.Read(fd, buf)
	if err != nil {
		return n, translateErrno(err)
	}
	return n, nil
}

// WriteFD writes buf to fd at the current offset.
func WriteFD(fd int, buf []byte) (int, error) {
	n, err := syscall.Write(fd, buf)
	if err != nil {
		return n, translateErrno(err)
	}
	return n, nil
}

// Rename renames oldPath to newPath.
func Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return translatePathErr(err)
	}
	return nil
}

// Remove deletes path.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return translatePathErr(err)
	}
	return nil
}

func translatePathErr(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		if errno, ok := pe.Err.(syscall.Errno); ok {
			return ioerrors.New(kindFromErrno(errno), pe.Op)
		}
	}
	if le, ok := err.(*os.LinkError); ok {
		if errno, ok := le.Err.(syscall.Errno); ok {
			return ioerrors.New(kindFromErrno(errno), le.Op)
		}
	}
	return ioerrors.New(ioerrors.Unexpected, "osshim")
}

// translateErrno wraps a raw syscall-level error (normally a
// syscall.Errno) into a fully normalized ioerrors error.
func translateErrno(err error) error {
	errno, ok := err.(syscall.Errno)
	if !ok {
		return ioerrors.New(ioerrors.Unexpected, "osshim")
	}
	return ioerrors.New(kindFromErrno(errno), "osshim")
}
