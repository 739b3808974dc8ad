package malloc

import "unsafe"

// sentinel is one anchor of a segregated free list: a full-sized header
// occupying sentinelSize bytes so it can be manipulated with exactly the
// same next/prev accessors as any real block, per the design note that
// sentinels are "full-sized header structs located in a fixed global
// array". Its size/state fields are never consulted; only next/prev are.
const sentinelSize = allocHeaderSize + 16

type sentinel [sentinelSize]byte

func (a *Allocator) sentinelPtr(class int) unsafe.Pointer {
	return unsafe.Pointer(&a.sentinels[class][0])
}

// resetFreeLists makes every sentinel an empty circular list (self-loop).
func (a *Allocator) resetFreeLists() {
	for i := range a.sentinels {
		s := a.sentinelPtr(i)
		setNextPtr(s, s)
		setPrevPtr(s, s)
	}
}

// insert splices h at the head of its size class's free list (LIFO). h
// must not currently be linked anywhere.
func (a *Allocator) insert(h unsafe.Pointer) {
	s := a.sentinelPtr(classOf(getSize(h)))
	head := nextPtr(s)
	setNextPtr(h, head)
	setPrevPtr(h, s)
	setPrevPtr(head, h)
	setNextPtr(s, h)
}

// remove unlinks h from whatever free list it currently occupies.
func (a *Allocator) remove(h unsafe.Pointer) {
	p := prevPtr(h)
	n := nextPtr(h)
	setNextPtr(p, n)
	setPrevPtr(n, p)
	setNextPtr(h, nil)
	setPrevPtr(h, nil)
}
