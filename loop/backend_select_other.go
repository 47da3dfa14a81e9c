//go:build !linux && !windows

// File: loop/backend_select_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package loop

import (
	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/backend/pollset"
	"github.com/momentics/hioloop/threadpool"
)

func selectBackend(pool *threadpool.Pool) (backend.Backend, error) {
	return pollset.New(pool)
}
