package malloc

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"
)

// DefaultArenaSize is the chunk size requested from the RawSource whenever
// the free lists cannot satisfy an allocation and growth is needed, unless
// overridden with WithArenaSize.
const DefaultArenaSize = 4096

// Allocator is a segregated-fit allocator over chunks of raw memory. The
// zero value is not usable; construct one with New.
//
// Allocator makes the "process-wide state" of spec.md's data model an
// explicit value rather than a set of package globals, per the design
// note that a language-idiomatic rendering may make the allocator context
// explicit. Package-level Allocate/Free/... functions are still provided,
// delegating to a lazily constructed default instance, for callers that
// want classic malloc-style global use.
type Allocator struct {
	mu sync.Mutex

	sentinels [nLists]sentinel

	// lastFencepost is the right fencepost of the most recently acquired
	// chunk, used to detect whether the next chunk grown is contiguous
	// with it. nil only before the first chunk is acquired.
	lastFencepost unsafe.Pointer

	chunks chunkRegistry

	arenaSize int
	raw       RawSource
	diag      io.Writer
}

// Option configures an Allocator at construction time.
type Option func(*Allocator)

// WithArenaSize overrides DefaultArenaSize. size must be a multiple of 8
// large enough to hold two fenceposts and one minimum-sized block.
func WithArenaSize(size int) Option {
	return func(a *Allocator) { a.arenaSize = size }
}

// WithRawSource overrides the OS-memory collaborator, primarily for tests
// that need to force or forbid chunk adjacency deterministically.
func WithRawSource(r RawSource) Option {
	return func(a *Allocator) { a.raw = r }
}

// WithDiagnosticWriter overrides where the double-free diagnostic is
// written before Free panics with ErrDoubleFree. Defaults to os.Stderr.
func WithDiagnosticWriter(w io.Writer) Option {
	return func(a *Allocator) { a.diag = w }
}

// New constructs an Allocator and acquires its first chunk from the OS.
func New(opts ...Option) (*Allocator, error) {
	a := &Allocator{
		arenaSize: DefaultArenaSize,
		diag:      os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.raw == nil {
		a.raw = newRawSource()
	}
	if a.arenaSize%8 != 0 || a.arenaSize < 2*allocHeaderSize+minBlock {
		return nil, fmt.Errorf("malloc: arena size must be 8-byte aligned and at least %d bytes, got %d",
			2*allocHeaderSize+minBlock, a.arenaSize)
	}

	a.resetFreeLists()

	leftFP, interior, rightFP, _, err := a.acquireAndFence()
	if err != nil {
		return nil, err
	}
	a.insert(interior)
	a.chunks.append(uintptr(leftFP))
	a.lastFencepost = rightFP

	return a, nil
}

// acquireAndFence requests one arenaSize chunk from the RawSource and
// installs its fencepost pair.
func (a *Allocator) acquireAndFence() (leftFP, interior, rightFP unsafe.Pointer, interiorSize uint64, err error) {
	buf, err := a.raw.Acquire(a.arenaSize)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	// Pin buf for the allocator's lifetime before deriving any address
	// out of it: once installFenceposts below returns, nothing but
	// reconstructed uintptr values (free-list links, chunk boundary
	// marks) will ever reference this chunk again, and those do not
	// keep GC-managed memory alive on their own.
	a.chunks.retain(buf)
	leftFP, interior, rightFP, interiorSize = installFenceposts(dataPtr(buf), a.arenaSize)
	return leftFP, interior, rightFP, interiorSize, nil
}

var (
	defaultOnce sync.Once
	defaultA    *Allocator
)

func def() *Allocator {
	defaultOnce.Do(func() {
		// The package-level convenience API has no way to surface a
		// construction error (out-of-memory on the very first chunk);
		// defaultA stays nil and every package function degrades to a
		// no-op/NULL return, consistent with how an allocation failure
		// is otherwise reported.
		defaultA, _ = New()
	})
	return defaultA
}

// Allocate delegates to a lazily constructed default Allocator. See
// (*Allocator).Allocate.
func Allocate(n int) []byte {
	if def() == nil {
		return nil
	}
	return def().Allocate(n)
}

// ZeroAlloc delegates to a lazily constructed default Allocator. See
// (*Allocator).ZeroAlloc.
func ZeroAlloc(count, size int) []byte {
	if def() == nil {
		return nil
	}
	return def().ZeroAlloc(count, size)
}

// Reallocate delegates to a lazily constructed default Allocator. See
// (*Allocator).Reallocate.
func Reallocate(p []byte, newSize int) []byte {
	if def() == nil {
		return nil
	}
	return def().Reallocate(p, newSize)
}

// Free delegates to a lazily constructed default Allocator. See
// (*Allocator).Free.
func Free(p []byte) {
	if def() == nil {
		return
	}
	def().Free(p)
}

// Verify delegates to a lazily constructed default Allocator. See
// (*Allocator).Verify.
func Verify() (bool, error) {
	if def() == nil {
		return false, fmt.Errorf("malloc: default allocator failed to initialize")
	}
	return def().Verify()
}
