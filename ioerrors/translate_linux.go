//go:build linux

// File: ioerrors/translate_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioerrors

import (
	"golang.org/x/sys/unix"
)

// FromErrno translates a raw Linux errno into the normalized taxonomy.
func FromErrno(errno unix.Errno) Kind {
	switch errno {
	case 0:
		return Unexpected
	case unix.EACCES:
		return AccessDenied
	case unix.EPERM:
		return PermissionDenied
	case unix.ELOOP:
		return SymLinkLoop
	case unix.EMFILE:
		return ProcessFdQuotaExceeded
	case unix.ENFILE:
		return SystemFdQuotaExceeded
	case unix.ENXIO, unix.ENODEV:
		return NoDevice
	case unix.ENOENT:
		return FileNotFound
	case unix.ENAMETOOLONG:
		return NameTooLong
	case unix.ENOMEM, unix.ENOBUFS:
		return SystemResources
	case unix.EFBIG:
		return FileTooBig
	case unix.EISDIR:
		return IsDir
	case unix.ENOSPC:
		return NoSpaceLeft
	case unix.ENOTDIR:
		return NotDir
	case unix.EEXIST:
		return PathAlreadyExists
	case unix.EBUSY:
		return DeviceBusy
	case unix.ETXTBSY:
		return FileBusy
	case unix.EINVAL:
		return BadPathName
	case unix.EAGAIN:
		return WouldBlock
	case unix.ECONNRESET:
		return ConnectionResetByPeer
	case unix.ETIMEDOUT:
		return ConnectionTimedOut
	case unix.EIO:
		return InputOutput
	case unix.ECANCELED:
		return OperationAborted
	case unix.EPIPE:
		return BrokenPipe
	case unix.ENOTCONN:
		return SocketNotConnected
	case unix.EDQUOT:
		return DiskQuota
	case unix.EAFNOSUPPORT:
		return AddressFamilyNotSupported
	default:
		return Unexpected
	}
}
