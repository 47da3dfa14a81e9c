// File: ioerrors/kind.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package ioerrors defines the normalized error taxonomy every OS shim and
// backend translates into, and is the only error surface a Completion's
// result carries. Unrecognized platform codes become Unexpected; the loop
// never aborts on a single operation's failure — only poll itself failing
// with something other than a timeout is fatal.
package ioerrors

import "errors"

// Kind is a closed taxonomy of normalized I/O error conditions.
type Kind int

const (
	Unexpected Kind = iota
	AccessDenied
	PermissionDenied
	SymLinkLoop
	ProcessFdQuotaExceeded
	SystemFdQuotaExceeded
	NoDevice
	FileNotFound
	NameTooLong
	SystemResources
	FileTooBig
	IsDir
	NoSpaceLeft
	NotDir
	PathAlreadyExists
	DeviceBusy
	FileBusy
	BadPathName
	WouldBlock
	ConnectionResetByPeer
	ConnectionTimedOut
	InputOutput
	OperationAborted
	BrokenPipe
	SocketNotConnected
	NotOpenForReading
	NotOpenForWriting
	DiskQuota
	LockViolation
	UnknownHostName
	TemporaryNameServerFailure
	AddressFamilyNotSupported
	ServiceNotAvailableForSocketType
	InvalidFlags
	PermanentNameServerFailure
	NameHasNoUsableAddress
	Canceled
	NoThreadPool
	NotSupported
)

var names = map[Kind]string{
	Unexpected:                       "Unexpected",
	AccessDenied:                     "AccessDenied",
	PermissionDenied:                 "PermissionDenied",
	SymLinkLoop:                      "SymLinkLoop",
	ProcessFdQuotaExceeded:           "ProcessFdQuotaExceeded",
	SystemFdQuotaExceeded:            "SystemFdQuotaExceeded",
	NoDevice:                         "NoDevice",
	FileNotFound:                     "FileNotFound",
	NameTooLong:                      "NameTooLong",
	SystemResources:                  "SystemResources",
	FileTooBig:                       "FileTooBig",
	IsDir:                            "IsDir",
	NoSpaceLeft:                      "NoSpaceLeft",
	NotDir:                           "NotDir",
	PathAlreadyExists:                "PathAlreadyExists",
	DeviceBusy:                       "DeviceBusy",
	FileBusy:                         "FileBusy",
	BadPathName:                      "BadPathName",
	WouldBlock:                       "WouldBlock",
	ConnectionResetByPeer:            "ConnectionResetByPeer",
	ConnectionTimedOut:               "ConnectionTimedOut",
	InputOutput:                      "InputOutput",
	OperationAborted:                 "OperationAborted",
	BrokenPipe:                       "BrokenPipe",
	SocketNotConnected:               "SocketNotConnected",
	NotOpenForReading:                "NotOpenForReading",
	NotOpenForWriting:                "NotOpenForWriting",
	DiskQuota:                        "DiskQuota",
	LockViolation:                    "LockViolation",
	UnknownHostName:                  "UnknownHostName",
	TemporaryNameServerFailure:       "TemporaryNameServerFailure",
	AddressFamilyNotSupported:        "AddressFamilyNotSupported",
	ServiceNotAvailableForSocketType: "ServiceNotAvailableForSocketType",
	InvalidFlags:                     "InvalidFlags",
	PermanentNameServerFailure:       "PermanentNameServerFailure",
	NameHasNoUsableAddress:           "NameHasNoUsableAddress",
	Canceled:                         "Canceled",
	NoThreadPool:                     "NoThreadPool",
	NotSupported:                     "NotSupported",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "Kind(unknown)"
}

// Error adapts Kind to the error interface so it can be returned or wrapped
// like any other Go error at package boundaries (e.g. osshim helpers).
type Error struct {
	Kind Kind
	// Op, if set, names the syscall or operation that produced this error.
	Op string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String()
}

// New wraps a Kind as an error, optionally naming the failing operation.
func New(k Kind, op string) error {
	return &Error{Kind: k, Op: op}
}

// As extracts the Kind from err if it (or something it wraps) is an *Error;
// otherwise returns Unexpected, false.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return Unexpected, false
}
