// File: queue/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Batch is the ephemeral, growable buffer a backend uses to stage reaped
// CQEs/packets/ready descriptors within a single poll() call, before they
// are pushed one at a time onto the loop's intrusive completion queue.
// Unlike the intrusive FIFO, a Batch does not embed into the nodes it
// carries and may grow past its initial capacity, so it is backed by
// eapache/queue's ring buffer rather than hand-rolled.
package queue

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioloop/completion"
)

// Batch buffers *completion.Completion values reaped from a backend during
// one poll() call, in delivery order.
type Batch struct {
	q *queue.Queue
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{q: queue.New()}
}

// Add stages c for dispatch.
func (b *Batch) Add(c *completion.Completion) {
	b.q.Add(c)
}

// Len returns the number of staged completions.
func (b *Batch) Len() int {
	return b.q.Length()
}

// Drain removes and returns every staged completion in FIFO order, emptying
// the batch.
func (b *Batch) Drain() []*completion.Completion {
	n := b.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]*completion.Completion, 0, n)
	for b.q.Length() > 0 {
		out = append(out, b.q.Remove().(*completion.Completion))
	}
	return out
}
