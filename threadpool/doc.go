// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package threadpool offloads intrinsically blocking operations — name
// resolution, and filesystem calls on backends with no kernel-async path —
// off the single-threaded event loop.
package threadpool
