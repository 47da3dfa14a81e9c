// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package osshim normalizes every syscall a backend needs — sockets,
// files, name resolution — into ioerrors-returning functions, so the
// backend packages never touch golang.org/x/sys or os error values
// directly.
package osshim
