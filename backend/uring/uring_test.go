//go:build linux

// File: backend/uring/uring_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uring

import (
	"testing"

	"github.com/momentics/hioloop/backend/pollset"
	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/ioerrors"
)

// TestSubmitRejectsMultishotAccept exercises the fix ensuring
// Params.Multishot is actually read: previously it was accepted and
// silently ignored, giving the caller no signal that repeated delivery
// never happens. This never touches the ring, so it needs no real
// io_uring-capable kernel.
func TestSubmitRejectsMultishotAccept(t *testing.T) {
	b := &Backend{}
	c := completion.NewNetAccept(3, nil, nil)
	c.Params.Multishot = true

	done, err := b.Submit(c)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !done {
		t.Fatal("a rejected multishot accept must complete inline")
	}
	if _, err := c.GetResult(completion.OpNetAccept); err == nil {
		t.Fatal("expected an error result")
	} else if k, ok := ioerrors.As(err); !ok || k != ioerrors.NotSupported {
		t.Fatalf("got %v, want ioerrors.NotSupported", err)
	}
}

// TestCancelFallsBackToEmbeddedBackendForUntrackedCompletion verifies a
// completion never dispatched through the ring (Internal unset) routes
// to the embedded pollset's own Cancel instead of a failed type
// assertion on Internal silently reporting success.
func TestCancelFallsBackToEmbeddedBackendForUntrackedCompletion(t *testing.T) {
	ps, err := pollset.New(nil)
	if err != nil {
		t.Fatalf("pollset.New: %v", err)
	}
	defer ps.Close()

	b := &Backend{Backend: ps}
	c := completion.NewNetRecv(3, nil, 0, nil, nil)
	c.MarkRunning() // simulate already claimed by the embedded backend

	if b.Cancel(c) {
		t.Fatal("Cancel must fail for a completion already past the pending state")
	}
}
