package alloc

import (
	"sync/atomic"
	"unsafe"

	"github.com/codewandler/actr-go/internal/spin"
)

const (
	// granularity is the size-class step. Block sizes are promoted to the
	// next multiple so adjacent payloads never share a cache line.
	granularity = 64

	// poolCount is the number of cached size classes. Blocks larger than
	// poolCount*granularity bypass the cache entirely.
	poolCount = 32

	// naturalAlign is the alignment the Go allocator already guarantees
	// for byte slices of these sizes.
	naturalAlign = 8
)

// Stats is a snapshot of allocator cache activity.
type Stats struct {
	Hits   uint32 // allocations served from a free list
	Misses uint32 // allocations that fell through to the Go allocator
}

// CachingAllocator caches freed blocks in per-size-class free lists.
// All methods are safe for concurrent use; each class is guarded by its own
// spinlock.
type CachingAllocator struct {
	pools [poolCount]struct {
		mu   spin.Lock
		list FreeList
	}
	hits   atomic.Uint32
	misses atomic.Uint32
}

// NewCachingAllocator creates an empty caching allocator.
func NewCachingAllocator() *CachingAllocator {
	return &CachingAllocator{}
}

// classFor maps a block size to its size-class index, or to a value of at
// least poolCount if the size is uncacheable.
func classFor(size int) int {
	if size <= 0 {
		return 0
	}
	return (size + granularity - 1) / granularity - 1
}

// classSize is the allocated capacity of blocks in a class.
func classSize(class int) int { return (class + 1) * granularity }

// Allocate returns a block of at least size bytes with natural alignment.
// The returned slice has length size; its capacity is the size class.
func (a *CachingAllocator) Allocate(size int) []byte {
	return a.AllocateAligned(size, naturalAlign)
}

// AllocateAligned returns a block of at least size bytes whose backing array
// address is a multiple of align. align must be a power of two.
func (a *CachingAllocator) AllocateAligned(size int, align uint32) []byte {
	class := classFor(size)
	if class < poolCount {
		p := &a.pools[class]
		p.mu.Lock()
		b := p.list.FetchAligned(align)
		p.mu.Unlock()
		if b != nil {
			a.hits.Add(1)
			return b[:size]
		}
	}

	a.misses.Add(1)
	return freshBlock(size, class, align)
}

// Free returns a block to its size-class free list. Blocks from uncacheable
// classes, and blocks arriving at a full list, are dropped for the garbage
// collector to reclaim.
func (a *CachingAllocator) Free(block []byte) {
	c := cap(block)
	if c == 0 || c%granularity != 0 {
		return
	}
	class := c/granularity - 1
	if class >= poolCount {
		return
	}

	p := &a.pools[class]
	p.mu.Lock()
	p.list.Add(block[:c])
	p.mu.Unlock()
}

// Stats returns a racy snapshot of cache activity.
func (a *CachingAllocator) Stats() Stats {
	return Stats{Hits: a.hits.Load(), Misses: a.misses.Load()}
}

// ResetStats zeroes the activity counters.
func (a *CachingAllocator) ResetStats() {
	a.hits.Store(0)
	a.misses.Store(0)
}

// Flush drops every cached block.
func (a *CachingAllocator) Flush() {
	for i := range a.pools {
		p := &a.pools[i]
		p.mu.Lock()
		for !p.list.Empty() {
			p.list.Fetch()
		}
		p.mu.Unlock()
	}
}

// freshBlock allocates a new block from the Go allocator. Cacheable sizes are
// rounded up to their class size so the block can re-enter the cache on free.
func freshBlock(size, class int, align uint32) []byte {
	full := size
	if class < poolCount {
		full = classSize(class)
	}
	if align <= naturalAlign {
		return make([]byte, size, full)
	}

	// Over-allocate and slice to an aligned boundary. The capacity of the
	// result stays a class multiple so Free reclassifies it correctly.
	raw := make([]byte, full+int(align))
	off := 0
	if rem := uintptr(unsafe.Pointer(unsafe.SliceData(raw))) & uintptr(align-1); rem != 0 {
		off = int(uintptr(align) - rem)
	}
	return raw[off : off+size : off+full]
}
