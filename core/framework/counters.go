package framework

import "github.com/codewandler/actr-go/core/sched"

// Counter enumerates the framework's queryable event counters.
type Counter int

const (
	// CounterMessagesProcessed counts dispatch steps, summed over workers.
	CounterMessagesProcessed Counter = iota
	// CounterYields counts workers finding the ready queue empty.
	CounterYields
	// CounterWorkerWakes counts parked workers being woken.
	CounterWorkerWakes
	// CounterMessagesSent counts sends accepted by this framework.
	CounterMessagesSent
	// CounterAllocatorHits counts allocations served from the cache.
	CounterAllocatorHits
	// CounterAllocatorMisses counts allocations that fell through to the
	// Go allocator.
	CounterAllocatorMisses

	// NumCounters is the number of queryable counters.
	NumCounters
)

// workerCounter maps framework counters onto the scheduler's per-worker
// counters. Returns false for framework-wide counters.
func workerCounter(k Counter) (sched.Counter, bool) {
	switch k {
	case CounterMessagesProcessed:
		return sched.CounterMessagesProcessed, true
	case CounterYields:
		return sched.CounterYields, true
	case CounterWorkerWakes:
		return sched.CounterWakes, true
	}
	return 0, false
}

// CounterValue returns counter k's value: per-worker counters sum over the
// live workers; the send and allocator counters are framework-wide.
func (f *Framework) CounterValue(k Counter) uint32 {
	if sk, ok := workerCounter(k); ok {
		return f.pool.CounterValue(sk)
	}
	switch k {
	case CounterMessagesSent:
		return f.sent.Load()
	case CounterAllocatorHits:
		return f.alloc.Stats().Hits
	case CounterAllocatorMisses:
		return f.alloc.Stats().Misses
	}
	return 0
}

// PerWorkerCounterValues snapshots counter k for each live worker into buf,
// returning the number of values written. Framework-wide counters have no
// per-worker breakdown and write nothing.
func (f *Framework) PerWorkerCounterValues(k Counter, buf []uint32) int {
	sk, ok := workerCounter(k)
	if !ok {
		return 0
	}
	return f.pool.PerWorkerCounterValues(sk, buf)
}

// ResetCounters zeroes every counter.
func (f *Framework) ResetCounters() {
	f.pool.ResetCounters()
	f.sent.Store(0)
	f.alloc.ResetStats()
}
