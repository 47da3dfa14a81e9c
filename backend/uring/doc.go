// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package uring is the Linux io_uring backend.
package uring
