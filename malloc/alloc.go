package malloc

import "unsafe"

// Allocate returns a byte slice of at least n bytes carved from the
// allocator's managed memory, or nil if n is 0. The content of the
// returned region is indeterminate. Allocate never returns an error
// directly; an out-of-memory condition from the underlying RawSource
// surfaces as a nil return with the allocator left in a consistent state
// (no fencepost is ever partially installed on a failed acquisition).
func (a *Allocator) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	required := requiredBlockSize(uint64(n))

	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.findFit(required)
	if !ok {
		var err error
		h, err = a.growAndSatisfy(required)
		if err != nil {
			return nil
		}
	}
	return unsafe.Slice((*byte)(payloadOfHeader(h)), int(getSize(h))-allocHeaderSize)[:n]
}

// findFit scans the free lists in class order, applying the three search
// cases of the allocation engine: exact fit, oversize split in a pure
// class, and the mixed last class's linear scan with its
// remainder-retention rule. The returned header is already unlinked from
// every free list and marked stateAllocated.
func (a *Allocator) findFit(required uint64) (unsafe.Pointer, bool) {
	for i := 0; i < nLists-1; i++ {
		s := a.sentinelPtr(i)
		head := nextPtr(s)
		if head == s {
			continue
		}
		size := getSize(head)
		switch {
		case size == required:
			a.remove(head)
			setState(head, stateAllocated)
			return head, true
		case size > required:
			a.remove(head)
			return a.carve(head, size, required), true
		default:
			// Pure classes are homogeneous: every block in list i has
			// size exactly (i+3)*8, so a class too small to help is
			// skipped entirely rather than scanned.
			continue
		}
	}

	s := a.sentinelPtr(nLists - 1)
	for b := nextPtr(s); b != s; b = nextPtr(b) {
		size := getSize(b)
		if size < required {
			continue
		}
		remainder := size - required
		if remainder >= lastClassThreshold {
			// Stays in the mixed class after shrinking: update in
			// place without relinking, per the 488-byte
			// remainder-retention rule.
			setSize(b, remainder)
			allocated := unsafe.Add(b, int(remainder))
			setSize(allocated, required)
			setState(allocated, stateAllocated)
			setLeftSize(allocated, uint32(remainder))
			setLeftSize(rightOf(allocated), uint32(required))
			return allocated, true
		}
		a.remove(b)
		return a.carve(b, size, required), true
	}

	return nil, false
}

// carve splits a free block of freeSize bytes (not currently linked into
// any free list) into an allocated tail of exactly required bytes and a
// free remainder, reinserting the remainder. When the remainder would be
// smaller than minBlock, the whole block is allocated instead, with its
// size and its right neighbour's left_size set to freeSize. Used by both
// findFit's pure-class split and every growth path, which is exactly why
// the spec phrases growth as "satisfy the request from C using the split
// rule", "carve A = right tail", etc. — growth and the ordinary split path
// carve identically once the free region to split is known.
func (a *Allocator) carve(free unsafe.Pointer, freeSize, required uint64) unsafe.Pointer {
	remainder := freeSize - required
	if remainder < minBlock {
		setSize(free, freeSize)
		setState(free, stateAllocated)
		setLeftSize(rightOf(free), uint32(freeSize))
		return free
	}
	setSize(free, remainder)
	setState(free, stateUnallocated)
	allocated := unsafe.Add(free, int(remainder))
	setSize(allocated, required)
	setState(allocated, stateAllocated)
	setLeftSize(allocated, uint32(remainder))
	setLeftSize(rightOf(allocated), uint32(required))
	a.insert(free)
	return allocated
}

// growAndSatisfy acquires a fresh chunk from the RawSource and carves the
// allocation out of it, stitching the new chunk to the previous one when
// they turn out to be contiguous.
func (a *Allocator) growAndSatisfy(required uint64) (unsafe.Pointer, error) {
	leftFP, interior, rightFP, interiorSize, err := a.acquireAndFence()
	if err != nil {
		return nil, err
	}

	oldLastFencepost := a.lastFencepost

	if leftOf(leftFP) != oldLastFencepost {
		// Non-adjacent: the new chunk is a fresh, independent free
		// region.
		a.chunks.append(uintptr(leftFP))
		a.lastFencepost = rightFP
		return a.carve(interior, interiorSize, required), nil
	}

	prevTail := leftOf(oldLastFencepost)
	a.lastFencepost = rightFP

	if getState(prevTail) == stateAllocated {
		// Adjacent, previous block allocated: erase both fenceposts
		// by reusing the old right fencepost's address (oldLastFencepost)
		// as the new free block N, spanning the two erased fenceposts
		// plus the new chunk's interior. N's left_size is left
		// untouched: it still correctly describes prevTail, which did
		// not move.
		n := oldLastFencepost
		nSize := 2*uint64(allocHeaderSize) + interiorSize
		setSize(n, nSize)
		setState(n, stateUnallocated)
		return a.carve(n, nSize, required), nil
	}

	// Adjacent, previous block free: the surviving free block grows to
	// span itself, both erased fenceposts, and the new interior.
	prevSize := getSize(prevTail)
	a.remove(prevTail)
	newSize := prevSize + 2*uint64(allocHeaderSize) + interiorSize
	return a.carve(prevTail, newSize, required), nil
}
