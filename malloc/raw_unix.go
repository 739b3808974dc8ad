//go:build linux || darwin

package malloc

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// reserveSize is the virtual address space reserved up front for the
// mmap-backed arena. Reserving a large region once and bump-allocating
// chunks out of it is what lets the allocator observe genuine chunk
// adjacency (spec.md's "monotonically growing program break"), something
// ordinary Go heap allocations (make([]byte, n) on successive calls) do
// not promise.
const reserveSize = 1 << 30 // 1GiB of address space, not committed memory

// mmapRawSource is the default RawSource on platforms with mmap: a single
// PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANON mapping reserved lazily on
// first use, bump-allocated thereafter.
type mmapRawSource struct {
	mu     sync.Mutex
	base   []byte
	offset int
}

func newRawSource() RawSource { return &mmapRawSource{} }

func (m *mmapRawSource) Acquire(size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.base == nil {
		b, err := unix.Mmap(-1, 0, reserveSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
		if err != nil {
			return nil, fmt.Errorf("malloc: mmap reserve of %d bytes failed: %w", reserveSize, err)
		}
		m.base = b
	}
	if m.offset+size > len(m.base) {
		return nil, fmt.Errorf("malloc: virtual arena exhausted (reserved %d bytes, used %d, requested %d)",
			reserveSize, m.offset, size)
	}
	chunk := m.base[m.offset : m.offset+size : m.offset+size]
	m.offset += size
	return chunk, nil
}
