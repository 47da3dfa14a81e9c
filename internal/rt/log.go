// File: internal/rt/log.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package rt holds ambient runtime concerns shared across loop, backend,
// and threadpool — today just structured logging via
// github.com/rs/zerolog, in place of scattered fmt.Fprintf/log.Printf
// calls. Never called from the hot completion-dispatch path — only loop
// construction (chosen backend), failed wakes and polls, failed pollset
// registrations, and out-of-range CPU/NUMA indices in internal/normalize.
package rt

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Logger returns the process-wide runtime logger, initialized lazily on
// first use with a console writer at info level.
func Logger() *zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.InfoLevel).
			With().Timestamp().Logger()
	})
	return &logger
}

// SetLogger replaces the runtime logger, e.g. to raise verbosity or
// redirect output in tests.
func SetLogger(l zerolog.Logger) {
	once.Do(func() {}) // ensure Logger()'s lazy init never overwrites this
	logger = l
}
