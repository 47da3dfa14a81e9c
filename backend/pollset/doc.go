// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package pollset is the readiness-poll fallback backend: epoll on Linux,
// kqueue on Darwin/BSD, used wherever io_uring/IOCP aren't available.
package pollset
