//go:build windows

// File: ioerrors/translate_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioerrors

import (
	"golang.org/x/sys/windows"
)

// FromWindowsError translates a raw Windows error code into the normalized
// taxonomy.
func FromWindowsError(err error) Kind {
	errno, ok := err.(windows.Errno)
	if !ok {
		return Unexpected
	}
	switch errno {
	case windows.ERROR_ACCESS_DENIED:
		return AccessDenied
	case windows.ERROR_TOO_MANY_OPEN_FILES:
		return ProcessFdQuotaExceeded
	case windows.ERROR_FILE_NOT_FOUND:
		return FileNotFound
	case windows.ERROR_PATH_NOT_FOUND:
		return FileNotFound
	case windows.ERROR_FILENAME_EXCED_RANGE:
		return NameTooLong
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_OUTOFMEMORY:
		return SystemResources
	case windows.ERROR_DISK_FULL:
		return NoSpaceLeft
	case windows.ERROR_DIRECTORY:
		return NotDir
	case windows.ERROR_FILE_EXISTS, windows.ERROR_ALREADY_EXISTS:
		return PathAlreadyExists
	case windows.ERROR_BUSY:
		return DeviceBusy
	case windows.ERROR_SHARING_VIOLATION:
		return FileBusy
	case windows.ERROR_INVALID_PARAMETER:
		return BadPathName
	case windows.WSAEWOULDBLOCK:
		return WouldBlock
	case windows.WSAECONNRESET:
		return ConnectionResetByPeer
	case windows.WSAETIMEDOUT:
		return ConnectionTimedOut
	case windows.ERROR_OPERATION_ABORTED:
		return OperationAborted
	case windows.ERROR_BROKEN_PIPE:
		return BrokenPipe
	case windows.WSAENOTCONN:
		return SocketNotConnected
	case windows.ERROR_DISK_QUOTA_EXCEEDED:
		return DiskQuota
	case windows.ERROR_LOCK_VIOLATION:
		return LockViolation
	case windows.WSAEAFNOSUPPORT:
		return AddressFamilyNotSupported
	case windows.WSAESOCKTNOSUPPORT:
		return ServiceNotAvailableForSocketType
	default:
		return Unexpected
	}
}
