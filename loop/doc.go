// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package loop implements the single-threaded completion-based run loop:
// submit, dispatch to a backend or the thread pool, poll, deliver
// callbacks.
package loop
