// File: loop/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package loop

import (
	"context"

	"github.com/momentics/hioloop/completion"
	"github.com/momentics/hioloop/internal/rt"
	"github.com/momentics/hioloop/ioerrors"
	"github.com/momentics/hioloop/osshim"
	"github.com/momentics/hioloop/queue"
)

// Mode selects how long Run keeps iterating.
type Mode int

const (
	// ModeUntilDone runs until there is no submitted, in-flight, or
	// thread-pool work outstanding.
	ModeUntilDone Mode = iota
	// ModeOnce runs exactly one iteration (drain, submit, poll once,
	// dispatch) regardless of what remains outstanding afterward.
	ModeOnce
	// ModeNoWait is like ModeOnce but polls with a zero timeout, never
	// blocking even briefly.
	ModeNoWait
)

// Run drives the loop until mode's stopping condition is met or Stop is
// called. outstanding tracks completions this Loop knows
// about that have not yet reached a terminal state, so ModeUntilDone can
// decide when there is truly nothing left to wait for.
func (l *Loop) Run(mode Mode) error {
	outstanding := 0
	batch := queue.NewBatch()

	for {
		if l.stopRequested() {
			return nil
		}

		l.mu.Lock()
		for !l.cross.Empty() {
			ready := l.cross.Pop()
			l.dispatch(ready)
			outstanding--
		}
		l.mu.Unlock()

		for !l.submission.Empty() {
			c := l.submission.Pop()
			outstanding++
			if done := l.submit(c); done {
				l.dispatch(c)
				outstanding--
			}
		}

		if mode == ModeUntilDone && outstanding <= 0 {
			return nil
		}

		timeout := l.opts.DefaultPollTimeout
		if mode == ModeNoWait {
			timeout = 0
		}

		_, err := l.backend.Poll(timeout, batch)
		if err != nil {
			rt.Logger().Error().Err(err).Msg("poll failed")
			return err
		}
		for _, c := range batch.Drain() {
			l.dispatch(c)
			outstanding--
		}

		if mode == ModeOnce || mode == ModeNoWait {
			return nil
		}
	}
}

// submit routes c to the thread pool, handles it synchronously, or hands
// it to the backend. Returns true if c is already terminal and ready for
// immediate dispatch.
func (l *Loop) submit(c *completion.Completion) bool {
	if c.State() == completion.StateCanceled {
		return true
	}

	if c.Op == completion.OpCancel {
		l.handleCancel(c)
		return true
	}

	if c.Op == completion.OpWork || c.Op.BlockingOnly() {
		if l.pool == nil {
			c.SetError(ioerrors.NoThreadPool)
			c.MarkCompleted()
			return true
		}
		if c.Params.WorkFunc == nil {
			c.Params.WorkFunc = resolverWorkFunc(c.Op)
		}
		c.Loop = l
		l.pool.Submit(c)
		return false
	}

	c.MarkRunning()
	done, err := l.backend.Submit(c)
	if err != nil {
		c.SetError(ioerrors.Unexpected)
		c.MarkCompleted()
		return true
	}
	if done {
		c.MarkCompleted()
	}
	return done
}

// handleCancel implements OpCancel: pool-routable targets go through
// pool.Cancel (authoritative CAS + queue removal); everything else tries
// the target's own CAS first, falling back to the backend for in-flight
// kernel ops it can interrupt.
func (l *Loop) handleCancel(c *completion.Completion) {
	target := c.Params.Target
	ok := false
	switch {
	case target == nil:
		ok = false
	case (target.Op == completion.OpWork || target.Op.BlockingOnly()) && l.pool != nil:
		ok = l.pool.Cancel(target)
	default:
		ok = target.TryCancel()
		if !ok {
			ok = l.backend.Cancel(target)
		}
	}
	if ok {
		c.SetResult(completion.Result{N: 1})
	} else {
		c.SetResult(completion.Result{N: 0})
	}
	c.MarkCompleted()
}

// resolverWorkFunc returns the pool work function for the two ops with no
// kernel-async path on any backend. Their constructors in package
// completion can't set this themselves — completion must not import
// osshim, since osshim already imports completion — so it is wired here,
// the one package sitting above both.
func resolverWorkFunc(op completion.Op) func(userdata any, c *completion.Completion) {
	switch op {
	case completion.OpNetGetAddrInfo:
		return func(_ any, c *completion.Completion) {
			n, err := osshim.GetAddrInfo(context.Background(), c.Params.Host, c.Params.Service, c.Params.Results)
			if err != nil {
				c.SetError(errKind(err))
				return
			}
			c.SetResult(completion.Result{N: n})
		}
	case completion.OpNetGetNameInfo:
		return func(_ any, c *completion.Completion) {
			hostLen, svcLen, err := osshim.GetNameInfo(context.Background(), c.Params.Addr, c.Params.HostBuf, c.Params.ServiceBuf)
			if err != nil {
				c.SetError(errKind(err))
				return
			}
			c.SetResult(completion.Result{Lengths: [2]int{hostLen, svcLen}})
		}
	default:
		return nil
	}
}

func errKind(err error) ioerrors.Kind {
	if k, ok := ioerrors.As(err); ok {
		return k
	}
	return ioerrors.Unexpected
}

func (l *Loop) dispatch(c *completion.Completion) {
	if c.Callback == nil || c.State() == completion.StateCanceled {
		return
	}
	c.Callback(l, c)
}
