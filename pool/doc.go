// Package pool provides NUMA-aware scratch buffer pooling for vectored
// I/O completions: []byte buffers callers borrow for their own IOVecs and
// return themselves. No backend takes buffers from or returns them to
// this package.
package pool
