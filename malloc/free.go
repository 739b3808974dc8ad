package malloc

import (
	"fmt"
	"unsafe"
)

// Free releases a region previously returned by Allocate/ZeroAlloc/
// Reallocate. Free(nil) is a no-op. Freeing an already-free pointer is a
// fatal double-free: a diagnostic is written to the allocator's configured
// writer and the allocator panics with ErrDoubleFree, mirroring the
// original implementation's fprintf-then-abort.
func (a *Allocator) Free(p []byte) {
	if p == nil {
		return
	}
	h := headerOfPayload(dataPtr(p))

	a.mu.Lock()
	defer a.mu.Unlock()

	if getState(h) == stateUnallocated {
		fmt.Fprintf(a.diag, "malloc: double free detected at block %p\n", h)
		panic(ErrDoubleFree)
	}
	setState(h, stateUnallocated)

	l := leftOf(h)
	r := rightOf(h)
	lFree := getState(l) == stateUnallocated
	rFree := getState(r) == stateUnallocated

	switch {
	case !lFree && !rFree:
		a.insert(h)
	case lFree && !rFree:
		a.coalesceLeft(l, h)
	case !lFree && rFree:
		a.remove(r)
		setSize(h, getSize(h)+getSize(r))
		setLeftSize(rightOf(h), uint32(getSize(h)))
		a.insert(h)
	default: // both neighbours free
		a.remove(r)
		setSize(h, getSize(h)+getSize(r))
		setLeftSize(rightOf(h), uint32(getSize(h)))
		a.coalesceLeft(l, h)
	}
}

// coalesceLeft merges the free block h into its free left neighbour l, l
// being the block that survives. If l already sits in the mixed last
// class and growing it would keep it there, the merge happens in place
// without unlinking/relinking l — the 488-threshold micro-optimisation
// named in the deallocation engine.
func (a *Allocator) coalesceLeft(l, h unsafe.Pointer) {
	lSize := getSize(l)
	newSize := lSize + getSize(h)

	if classOf(lSize) == nLists-1 && classOf(newSize) == nLists-1 {
		setSize(l, newSize)
		setLeftSize(rightOf(l), uint32(newSize))
		return
	}

	a.remove(l)
	setSize(l, newSize)
	setLeftSize(rightOf(l), uint32(newSize))
	a.insert(l)
}
