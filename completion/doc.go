// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package completion defines the Completion record shared by the loop, the
// backends, and the thread pool: one allocation per operation, carrying its
// parameters, its tagged result, its lifecycle state, and per-backend
// scratch space.
package completion
