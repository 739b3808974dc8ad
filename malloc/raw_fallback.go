//go:build !linux && !darwin

package malloc

import (
	"sync"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// pooledRawSource is the portable RawSource for platforms without mmap.
// Unlike raw_unix.go's bump-allocated arena, successive chunks here are
// ordinary Go heap allocations and are not guaranteed to be contiguous, so
// growth on this backend will almost always take the non-adjacent path;
// the adjacent-chunk stitching logic in alloc.go is still correct here, it
// simply triggers far less often.
//
// Adapted from cache/mempool's size-classed sync.Pool table: that package
// indexes pools by power-of-two size class to serve arbitrary-sized
// requests with a magic-footer to validate frees; this type only ever
// serves a single fixed chunk size per Allocator; one pool per distinct
// size requested is enough, and chunks are never returned to the pool
// (segalloc has no shrink/munmap path), so Get always calls New.
// dirtmake.Bytes backs the slice, matching the spec's "content of payload
// is indeterminate" for freshly acquired memory. Unlike raw_unix.go's
// mmap mapping, this memory is ordinary GC-managed heap: the returned
// slice must be retained by the caller (chunkRegistry.retain) for as
// long as the allocator indexes anything inside it, since the free
// lists and chunk registry otherwise only ever address chunk memory
// through reconstructed uintptr values, which do not keep it alive on
// their own.
type pooledRawSource struct {
	pools sync.Map // int size -> *sync.Pool
}

func newRawSource() RawSource { return &pooledRawSource{} }

func (p *pooledRawSource) Acquire(size int) ([]byte, error) {
	v, _ := p.pools.LoadOrStore(size, &sync.Pool{
		New: func() interface{} {
			b := dirtmake.Bytes(size, size)
			return &b
		},
	})
	bp := v.(*sync.Pool).Get().(*[]byte)
	return *bp, nil
}
