// File: internal/normalize/normalizer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Index normalization for NUMA nodes and CPU indices: clamps caller-
// supplied indices to actual hardware topology instead of letting an
// out-of-range node/CPU index reach a syscall.
package normalize

import (
	"runtime"

	"github.com/momentics/hioloop/internal/rt"
)

// CPUIndex validates requested against [0, maxCPUs), falling back to 0.
func CPUIndex(requested, maxCPUs int) int {
	if maxCPUs < 1 {
		return 0
	}
	if requested < 0 || requested >= maxCPUs {
		rt.Logger().Warn().Int("requested", requested).Int("max", maxCPUs).Msg("cpu index out of range, falling back to 0")
		return 0
	}
	return requested
}

// CPUIndexAuto normalizes requested against runtime.NumCPU().
func CPUIndexAuto(requested int) int {
	if requested < 0 {
		return 0
	}
	return CPUIndex(requested, runtime.NumCPU())
}

// NUMANode validates requested against [0, maxNodes), falling back to 0.
func NUMANode(requested, maxNodes int) int {
	if maxNodes < 1 {
		return 0
	}
	if requested < 0 || requested >= maxNodes {
		rt.Logger().Warn().Int("requested", requested).Int("max", maxNodes).Msg("numa node out of range, falling back to 0")
		return 0
	}
	return requested
}
