package malloc

import "errors"

// ErrDoubleFree is the panic value Free uses when a pointer is freed twice
// (or freed after being handed to Free once already): spec.md classifies
// this as fatal, "process aborts after writing a diagnostic". The
// diagnostic itself is written to the allocator's configured writer before
// the panic, so a recovered test can still assert on both.
var ErrDoubleFree = errors.New("malloc: double free")

// ErrCorrupted is returned (never panicked) by Verify when a structural
// invariant does not hold: a free-list cycle, a misdirected pointer, a
// boundary-tag mismatch, or a free block unreachable from its chunk.
var ErrCorrupted = errors.New("malloc: corrupted allocator state")
