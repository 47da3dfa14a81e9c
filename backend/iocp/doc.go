// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package iocp is the Windows I/O completion port backend.
package iocp
