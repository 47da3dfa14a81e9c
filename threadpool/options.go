// File: threadpool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import "runtime"

// Options configures New. Plain struct literal, no env vars or
// config files.
type Options struct {
	// MinThreads is currently advisory; the pool starts MaxThreads workers
	// up front — a fixed bound, not dynamic growth/shrink.
	MinThreads int
	// MaxThreads bounds concurrently-running workers. <= 0 defaults to
	// runtime.NumCPU().
	MaxThreads int
	// PinWorkers enables affinity.SetAffinity for every worker, bound
	// round-robin across CPUs. Off by default: purely a performance knob,
	// never required for correctness.
	PinWorkers bool
}

func (o Options) normalize() Options {
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	if o.MinThreads <= 0 {
		o.MinThreads = o.MaxThreads
	}
	return o
}
