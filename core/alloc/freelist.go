package alloc

import "unsafe"

// maxBlocks is the number of blocks a FreeList retains per size class.
const maxBlocks = 16

// FreeList is a bounded LIFO of free blocks of a single size class.
//
// The list performs no locking of its own; callers serialize access around
// whole batches of operations, which lets the caching allocator hold one lock
// across a probe-then-fetch sequence.
type FreeList struct {
	blocks [maxBlocks][]byte
	count  int
}

// Len returns the number of cached blocks.
func (l *FreeList) Len() int { return l.count }

// Empty reports whether the list holds no blocks.
func (l *FreeList) Empty() bool { return l.count == 0 }

// Add prepends a block to the list. Returns false without retaining the
// block when the list is already at capacity; the caller owns rejected
// blocks.
func (l *FreeList) Add(block []byte) bool {
	if l.count >= maxBlocks {
		return false
	}
	l.blocks[l.count] = block
	l.count++
	return true
}

// Fetch pops the most recently added block, or nil if the list is empty.
func (l *FreeList) Fetch() []byte {
	if l.count == 0 {
		return nil
	}
	l.count--
	b := l.blocks[l.count]
	l.blocks[l.count] = nil
	return b
}

// FetchAligned unlinks and returns the first block whose backing array
// satisfies the given alignment, or nil if none does. align must be a power
// of two.
func (l *FreeList) FetchAligned(align uint32) []byte {
	mask := uintptr(align - 1)
	for i := l.count - 1; i >= 0; i-- {
		b := l.blocks[i]
		if uintptr(unsafe.Pointer(unsafe.SliceData(b)))&mask == 0 {
			l.count--
			copy(l.blocks[i:], l.blocks[i+1:l.count+1])
			l.blocks[l.count] = nil
			return b
		}
	}
	return nil
}
