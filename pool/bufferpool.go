// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NUMA-segmented scratch buffer pool. Grounded on pool/bufferpool.go and
// pool/numapool.go's BufferPoolManager/NUMAPool shape, collapsed into one
// type and stripped of the api.Buffer wrapper: this runtime's callers
// just want a []byte sized for one vectored I/O completion, not a
// reference-counted buffer handle.
package pool

import (
	"sync"

	"github.com/momentics/hioloop/internal/normalize"
)

// Pool is a NUMA-node-scoped, size-bucketed []byte pool. A size bucket
// whose pool is empty falls back to the NUMA allocator (or plain make,
// if none is available on this platform/build).
type Pool struct {
	node   int
	alloc  NUMAAllocator
	mu     sync.Mutex
	bucket map[int]*sync.Pool // size -> pool
}

// NewPool constructs a Pool for the given NUMA node (-1 for "no
// preference"). NUMA allocation is used opportunistically: on a platform
// or build without a NUMA binding, buffers come from the Go heap.
func NewPool(node int) *Pool {
	return &Pool{node: node, alloc: createNUMAAllocator(), bucket: make(map[int]*sync.Pool)}
}

func (p *Pool) poolFor(size int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.bucket[size]
	if !ok {
		node, alloc := p.node, p.alloc
		sp = &sync.Pool{New: func() any {
			if alloc == nil {
				return make([]byte, size)
			}
			buf, err := alloc.Alloc(size, node)
			if err != nil {
				return make([]byte, size)
			}
			return buf
		}}
		p.bucket[size] = sp
	}
	return sp
}

// Get returns a buffer of exactly size bytes, reused from the pool if
// one of that exact size class is available.
func (p *Pool) Get(size int) []byte {
	buf := p.poolFor(size).Get().([]byte)
	if len(buf) != size {
		buf = buf[:size]
	}
	return buf
}

// Put returns buf to its size class's pool.
func (p *Pool) Put(buf []byte) {
	if len(buf) == 0 {
		return
	}
	p.poolFor(len(buf)).Put(buf)
}

// Manager fans out to one Pool per NUMA node, creating pools lazily. A
// requested node index outside the platform's actual topology is
// normalized to node 0 rather than silently handed to the allocator.
type Manager struct {
	mu       sync.RWMutex
	pools    map[int]*Pool
	maxNodes int
}

// NewManager constructs an empty Manager, querying the platform's NUMA
// node count once (1 if no NUMA allocator is available on this build).
func NewManager() *Manager {
	maxNodes := 1
	if a := createNUMAAllocator(); a != nil {
		if n, err := a.Nodes(); err == nil && n > 0 {
			maxNodes = n
		}
	}
	return &Manager{pools: make(map[int]*Pool), maxNodes: maxNodes}
}

// Pool returns (creating if needed) the Pool for numaNode, clamped to the
// platform's actual node count. numaNode == -1 means "no NUMA
// preference" and is passed through rather than normalized.
func (m *Manager) Pool(numaNode int) *Pool {
	if numaNode != -1 {
		numaNode = normalize.NUMANode(numaNode, m.maxNodes)
	}

	m.mu.RLock()
	p, ok := m.pools[numaNode]
	m.mu.RUnlock()
	if ok {
		return p
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pools[numaNode]; ok {
		return p
	}
	p = NewPool(numaNode)
	m.pools[numaNode] = p
	return p
}
