package malloc

import (
	"fmt"
	"io"
	"unsafe"
)

// Verify walks every free list and every chunk and reports whether the
// allocator's invariants all hold. It never panics and never mutates
// state.
func (a *Allocator) Verify() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h := a.detectCycle(); h != nil {
		return false, fmt.Errorf("%w: cycle detected in a free list at %p", ErrCorrupted, h)
	}
	if h := a.verifyPointers(); h != nil {
		return false, fmt.Errorf("%w: inconsistent next/prev pointers at %p", ErrCorrupted, h)
	}

	freeSeen := make(map[uintptr]struct{})
	for i := 0; i < nLists; i++ {
		s := a.sentinelPtr(i)
		for b := nextPtr(s); b != s; b = nextPtr(b) {
			size := getSize(b)
			if size%8 != 0 || size < minBlock {
				return false, fmt.Errorf("%w: free block of size %d at %p violates alignment/min-block", ErrCorrupted, size, b)
			}
			if classOf(size) != i {
				return false, fmt.Errorf("%w: block of size %d misfiled in list %d", ErrCorrupted, size, i)
			}
			freeSeen[uintptr(b)] = struct{}{}
		}
	}

	var walkErr error
	a.chunks.Do(func(leftFencepost uintptr) {
		if walkErr != nil {
			return
		}
		walkErr = a.verifyChunk(unsafe.Pointer(leftFencepost), freeSeen)
	})
	if walkErr != nil {
		return false, walkErr
	}

	if len(freeSeen) != 0 {
		return false, fmt.Errorf("%w: %d free block(s) indexed but unreachable from any chunk walk", ErrCorrupted, len(freeSeen))
	}
	return true, nil
}

// verifyChunk walks one chunk from its left fencepost to its right
// fencepost, checking boundary-tag consistency, the 8-byte/MIN_BLOCK size
// invariant, and the no-two-adjacent-free-blocks invariant, crossing each
// free block off freeSeen as it is encountered.
func (a *Allocator) verifyChunk(leftFencepost unsafe.Pointer, freeSeen map[uintptr]struct{}) error {
	if getState(leftFencepost) != stateFencepost {
		return fmt.Errorf("%w: chunk registry entry at %p is not a fencepost", ErrCorrupted, leftFencepost)
	}

	prev := leftFencepost
	prevWasFree := false
	cur := rightOf(leftFencepost)
	for {
		if getLeftSize(cur) != uint32(getSize(prev)) {
			return fmt.Errorf("%w: left_size at %p does not match its left neighbour's size", ErrCorrupted, cur)
		}
		if getState(cur) == stateFencepost {
			return nil
		}

		size := getSize(cur)
		if size%8 != 0 || size < minBlock {
			return fmt.Errorf("%w: block of size %d at %p violates alignment/min-block", ErrCorrupted, size, cur)
		}

		curFree := getState(cur) == stateUnallocated
		if curFree && prevWasFree {
			return fmt.Errorf("%w: two adjacent free blocks at %p", ErrCorrupted, cur)
		}
		if curFree {
			if _, ok := freeSeen[uintptr(cur)]; !ok {
				return fmt.Errorf("%w: free block at %p is not indexed in any free list", ErrCorrupted, cur)
			}
			delete(freeSeen, uintptr(cur))
		}

		prevWasFree = curFree
		prev = cur
		cur = rightOf(cur)
	}
}

// detectCycle looks for a cycle in any free list using Floyd's
// tortoise-and-hare, the same technique (and the same intent) as the
// original implementation's detect_cycles.
func (a *Allocator) detectCycle() unsafe.Pointer {
	for i := 0; i < nLists; i++ {
		s := a.sentinelPtr(i)
		slow := nextPtr(s)
		if slow == s {
			continue
		}
		fast := nextPtr(slow)
		for fast != s {
			if slow == fast {
				return slow
			}
			slow = nextPtr(slow)
			fast = nextPtr(fast)
			if fast == s {
				break
			}
			fast = nextPtr(fast)
		}
	}
	return nil
}

// verifyPointers checks that every node's neighbours agree it belongs
// between them: cur.next.prev == cur and cur.prev.next == cur.
func (a *Allocator) verifyPointers() unsafe.Pointer {
	for i := 0; i < nLists; i++ {
		s := a.sentinelPtr(i)
		for cur := nextPtr(s); cur != s; cur = nextPtr(cur) {
			if prevPtr(nextPtr(cur)) != cur || nextPtr(prevPtr(cur)) != cur {
				return cur
			}
		}
	}
	return nil
}

// Stats summarises the allocator's current memory usage.
type Stats struct {
	ArenaSize      int
	ChunkCount     int
	AllocatedBytes int64
	FreeBytes      int64
}

// Stats reports current memory usage, grounded on the teacher's
// BuddyAllocator.Available()/AllocStats-style accounting.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Stats{ArenaSize: a.arenaSize, ChunkCount: a.chunks.Len()}
	for i := 0; i < nLists; i++ {
		s := a.sentinelPtr(i)
		for b := nextPtr(s); b != s; b = nextPtr(b) {
			st.FreeBytes += int64(getSize(b))
		}
	}
	a.chunks.Do(func(leftFencepost uintptr) {
		cur := rightOf(unsafe.Pointer(leftFencepost))
		for getState(cur) != stateFencepost {
			if getState(cur) == stateAllocated {
				st.AllocatedBytes += int64(getSize(cur))
			}
			cur = rightOf(cur)
		}
	})
	return st
}

// Dump writes a human-readable block map of every chunk to w, in the
// style of the original implementation's print_free_list/print_pools
// debug helpers: per chunk, a header line followed by a line with one
// bracketed tag per block.
func (a *Allocator) Dump(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	chunkIdx := 0
	a.chunks.Do(func(leftFencepost uintptr) {
		fmt.Fprintf(w, "chunk %d @ %p:\n  [FP]", chunkIdx, unsafe.Pointer(leftFencepost))
		chunkIdx++
		cur := rightOf(unsafe.Pointer(leftFencepost))
		for getState(cur) != stateFencepost {
			tag := "F"
			if getState(cur) == stateAllocated {
				tag = "A"
			}
			fmt.Fprintf(w, " [%s %d]", tag, getSize(cur))
			cur = rightOf(cur)
		}
		fmt.Fprint(w, " [FP]\n")
	})
}
