// File: internal/timerq/timerq.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A deadline-ordered min-heap of pending timer completions, shared by
// every backend's Poll loop so a backend's wait timeout can be clamped to
// "time until the next timer fires" instead of polling blind. Modeled on
// a container/heap-based timer queue, trimmed to the single
// responsibility this runtime's OpTimer needs — no recurring/cancelable
// task dispatch or CPU prefetch hints, which have no equivalent here.
package timerq

import (
	"container/heap"
	"time"

	"github.com/momentics/hioloop/completion"
)

type entry struct {
	deadline time.Time
	c        *completion.Completion
}

type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue is a min-heap of armed timer completions, keyed by deadline. Not
// safe for concurrent use; every caller in this runtime owns one per
// single-threaded backend.
type Queue struct {
	h entryHeap
}

func New() *Queue { return &Queue{} }

// Add arms c, which fires at c.Params.Deadline.
func (q *Queue) Add(c *completion.Completion) {
	heap.Push(&q.h, entry{deadline: c.Params.Deadline, c: c})
}

// Remove disarms c if still pending. Reports whether it was found.
func (q *Queue) Remove(c *completion.Completion) bool {
	for i, e := range q.h {
		if e.c == c {
			heap.Remove(&q.h, i)
			return true
		}
	}
	return false
}

// Len reports the number of armed timers.
func (q *Queue) Len() int { return q.h.Len() }

// NextTimeout returns how long until the earliest deadline, clamped to
// [0, def]. If the queue is empty, def is returned unchanged (def may be
// negative, meaning "wait forever").
func (q *Queue) NextTimeout(def time.Duration) time.Duration {
	if q.h.Len() == 0 {
		return def
	}
	d := time.Until(q.h[0].deadline)
	if d < 0 {
		return 0
	}
	if def >= 0 && d > def {
		return def
	}
	return d
}

// Expired pops and returns every completion whose deadline is at or
// before now.
func (q *Queue) Expired(now time.Time) []*completion.Completion {
	var out []*completion.Completion
	for q.h.Len() > 0 && !q.h[0].deadline.After(now) {
		e := heap.Pop(&q.h).(entry)
		out = append(out, e.c)
	}
	return out
}
