// File: completion/result.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package completion

import (
	"fmt"

	"github.com/momentics/hioloop/ioerrors"
)

// Result is the tagged union keyed by a Completion's Op: a single
// allocation-free sum type over every operation's success value. getResult
// checks the tag to catch misuse at call sites — a generic Result[T]
// generalized from one type parameter to a closed set of fields selected
// by Op.
type Result struct {
	// Handle carries a file descriptor/socket handle (net-open, net-accept,
	// file-open).
	Handle int
	// N carries a byte count (net-recv, net-send, net-recvfrom, net-sendto,
	// file-read, file-write) or an AddrInfo record count (net-getaddrinfo).
	N int
	// Lengths carries the written host/service lengths for net-getnameinfo.
	Lengths [2]int
	// Err is the normalized error kind, valid only when non-nil.
	Err error
}

// getResult returns the success payload for expectedOp, or the stored
// error. It panics if called before the Completion has a result, or for
// a mismatched op — both are call-site bugs, not recoverable conditions.
func (c *Completion) getResult(expectedOp Op) (Result, error) {
	if !c.hasResult {
		panic(fmt.Sprintf("completion: getResult(%s) called before completion", expectedOp))
	}
	if c.Op != expectedOp {
		panic(fmt.Sprintf("completion: getResult(%s) called on a %s completion", expectedOp, c.Op))
	}
	if c.result.Err != nil {
		return Result{}, c.result.Err
	}
	return c.result, nil
}

// GetResult is the exported, op-checked accessor for a completion's result.
func (c *Completion) GetResult(expectedOp Op) (Result, error) {
	return c.getResult(expectedOp)
}

// setResult records a successful result. It leaves the Completion's state
// unchanged; callers mark it completed separately.
func (c *Completion) setResult(r Result) {
	c.result = r
	c.hasResult = true
}

// setError records a normalized failure. Like setResult, it leaves the
// Completion's state unchanged.
func (c *Completion) setError(k ioerrors.Kind) {
	c.result = Result{Err: ioerrors.New(k, c.Op.String())}
	c.hasResult = true
}

// SetResult is the backend-facing setter.
func (c *Completion) SetResult(r Result) { c.setResult(r) }

// SetError is the backend-facing error setter.
func (c *Completion) SetError(k ioerrors.Kind) { c.setError(k) }

// HasResult reports whether a result has been recorded.
func (c *Completion) HasResult() bool { return c.hasResult }
