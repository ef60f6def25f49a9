// Package alloc provides the message-memory allocator: bounded per-size-class
// free lists in front of the Go allocator.
//
// Message payload blocks churn at message rate, so the runtime recycles them
// instead of leaning on the garbage collector. A [CachingAllocator] keeps up
// to 16 blocks in each of 32 size classes (multiples of the cache-line size,
// up to 2 KiB); anything larger goes straight to the Go allocator and is
// dropped on free.
//
// Blocks allocated by one framework and consumed by another are freed against
// the consumer's allocator: the consumer's pools grow while the sender's
// shrink. That drift is intentional and self-balancing for steady
// cross-framework traffic.
package alloc
