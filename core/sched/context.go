package sched

import "sync/atomic"

// Counter enumerates the per-worker event counters.
type Counter int

const (
	// CounterMessagesProcessed counts dispatch steps executed.
	CounterMessagesProcessed Counter = iota
	// CounterYields counts times a worker found the ready queue empty.
	CounterYields
	// CounterWakes counts times a parked worker was woken.
	CounterWakes

	// NumCounters is the number of per-worker counters.
	NumCounters
)

// Context is the per-worker state: event counters and the liveness flag.
// Counters are written only by the owning worker; external reads are racy
// snapshots.
type Context struct {
	id       uint32
	running  atomic.Bool
	counters [NumCounters]atomic.Uint32
}

// Count increments counter k by 1.
func (c *Context) Count(k Counter) { c.counters[k].Add(1) }

// CounterValue returns a snapshot of counter k.
func (c *Context) CounterValue(k Counter) uint32 { return c.counters[k].Load() }

// ResetCounters zeroes all counters.
func (c *Context) ResetCounters() {
	for i := range c.counters {
		c.counters[i].Store(0)
	}
}

// Running reports whether the owning worker is live.
func (c *Context) Running() bool { return c.running.Load() }
