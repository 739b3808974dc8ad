package malloc

import "sync"

// chunkRegistry is the diagnostic "list of chunk base addresses" named in
// the data model: one entry per OS chunk whose fencepost boundary survived
// (chunks stitched onto an adjacent predecessor during growth never get an
// entry of their own, since their fenceposts are erased and they become
// part of the previous entry's walk).
//
// It also pins the backing []byte of every chunk ever acquired, whether or
// not that chunk kept its own boundary entry. The free lists and the
// chunk-walk only ever address chunk memory through reconstructed
// pointers (uintptr fields, in header.go's next/prev and this type's own
// leftFencepost), and a uintptr does not by itself keep the Go heap memory
// it was computed from alive. On raw_unix.go's mmap-backed source this is
// moot (the kernel mapping is never managed by the Go GC), but
// raw_fallback.go backs chunks with ordinary dirtmake-allocated slices;
// without retain, a chunk that becomes fully free while no longer the
// most recently grown one would have no live Go-typed reference left
// anywhere, and the garbage collector would be free to reclaim memory the
// free lists still index. retained keeps exactly the permanent live
// []byte field the teacher's own unsafex/malloc/buddy.go and bitmap.go
// keep (their arena []byte), just one per chunk instead of one for a
// single fixed arena.
//
// Adapted from container/ring's fixed-size, snapshot-built ring: that type
// is built once from a slice and never grows, which does not fit an
// allocator whose chunk list grows for the process lifetime. Kept from the
// original are the GC-friendly flat storage and the read-only iteration
// style (Do); append, retain, and the mutex are new.
type chunkRegistry struct {
	mu       sync.Mutex
	items    []chunkMark
	retained [][]byte
}

type chunkMark struct {
	leftFencepost uintptr
	idx           int
}

func (r *chunkRegistry) append(addr uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, chunkMark{leftFencepost: addr, idx: len(r.items)})
}

// retain pins buf for the allocator's lifetime. Called once per
// successful RawSource.Acquire, regardless of whether the chunk it backs
// ends up with its own boundary entry or is merged into a predecessor.
func (r *chunkRegistry) retain(buf []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retained = append(r.retained, buf)
}

// Len returns the number of registered chunk boundaries.
func (r *chunkRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Do calls f once per registered chunk's left-fencepost address, in
// registration order.
func (r *chunkRegistry) Do(f func(leftFencepost uintptr)) {
	r.mu.Lock()
	items := make([]chunkMark, len(r.items))
	copy(items, r.items)
	r.mu.Unlock()
	for _, it := range items {
		f(it.leftFencepost)
	}
}
