package malloc

// Reallocate returns a region of at least newSize bytes containing the
// first min(old payload size, newSize) bytes of p, and frees p.
//
// This fixes the bug named in the design notes: the original
// implementation copied newSize bytes from the old region unconditionally,
// which over-reads past the end of a smaller old allocation whenever
// newSize > old size. The old payload size is recovered from the block
// header, and the copy is clamped to it.
func (a *Allocator) Reallocate(p []byte, newSize int) []byte {
	if p == nil {
		return a.Allocate(newSize)
	}
	if newSize <= 0 {
		a.Free(p)
		return nil
	}

	oldPayload := a.payloadSize(p)

	newBuf := a.Allocate(newSize)
	if newBuf == nil {
		return nil
	}

	n := oldPayload
	if newSize < n {
		n = newSize
	}
	copy(newBuf, p[:n])
	a.Free(p)
	return newBuf
}

// payloadSize reads the usable size of an already-allocated block. It is
// its own short critical section rather than folded into Reallocate's,
// since Reallocate must call the public Allocate/Free afterwards and no
// public operation may recursively re-enter another while holding the
// allocator's mutex.
func (a *Allocator) payloadSize(p []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := headerOfPayload(dataPtr(p))
	return int(getSize(h)) - allocHeaderSize
}
