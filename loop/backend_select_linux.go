//go:build linux

// File: loop/backend_select_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package loop

import (
	"github.com/momentics/hioloop/backend"
	"github.com/momentics/hioloop/backend/uring"
	"github.com/momentics/hioloop/threadpool"
)

func selectBackend(pool *threadpool.Pool) (backend.Backend, error) {
	return uring.New(pool)
}
