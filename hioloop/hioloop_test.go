// File: hioloop/hioloop_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hioloop

import (
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/loop"
)

func TestNewAndClose(t *testing.T) {
	rt, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.Loop() == nil || rt.Pool() == nil || rt.Buffers() == nil {
		t.Fatal("expected non-nil Loop, Pool, Buffers")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestSubmitRunsOnPoolAndDispatchesOnLoop(t *testing.T) {
	rt, err := New(Config{DefaultPollTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var ran bool

	err = rt.Submit(func(userdata any, c *completion.Completion) {
		ran = true
		c.SetResult(completion.Result{N: 1})
	}, nil, func(l completion.Notifier, c *completion.Completion) {
		defer wg.Done()
		l.Stop()
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := make(chan struct{})
	go func() {
		rt.Loop().Run(loop.ModeUntilDone)
		close(done)
	}()

	wg.Wait()
	<-done

	if !ran {
		t.Fatal("work function never ran")
	}
}
