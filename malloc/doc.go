// Package malloc implements a segregated-fit dynamic memory allocator over
// raw bytes obtained from the operating system.
//
// Allocation requests are rounded up to an 8-byte-aligned block size and
// satisfied from one of 59 free lists, indexed by size class, each anchored
// on a sentinel node and organised as a circular doubly linked list threaded
// through the free blocks themselves. Every OS-sized chunk of memory is
// bracketed by fencepost blocks that terminate coalescing and let adjacent
// chunks be detected and stitched together transparently.
//
// The allocator is safe for concurrent use: every exported operation is
// serialised by a single mutex, matching the classical malloc/free contract
// rather than offering a lock-free fast path.
package malloc
