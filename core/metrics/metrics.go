// Package metrics defines the runtime's observation interface, so
// instrumentation backends (Prometheus, StatsD, ...) stay pluggable without
// coupling the core packages to any of them.
//
// The interface is deliberately narrow: it carries the observations the
// runtime actually emits, not generic counter/gauge plumbing. Event counts
// (messages processed, yields, allocator hits/misses) are served by the
// framework's counters API instead.
package metrics

// Runtime receives the framework's observations. All methods are called
// concurrently, from workers and from external sending goroutines alike.
type Runtime interface {
	// MessageSent records an accepted send. remote marks endpoint traffic.
	MessageSent(remote bool)
	// MessageUndelivered records a message consumed by the fallback
	// handler.
	MessageUndelivered()
	// MailboxDepth observes a mailbox's queue depth after a push.
	MailboxDepth(depth int)
	// WorkerCount observes the live worker count.
	WorkerCount(n int)
}

// nopRuntime is a no-op implementation of Runtime.
type nopRuntime struct{}

func (nopRuntime) MessageSent(bool)    {}
func (nopRuntime) MessageUndelivered() {}
func (nopRuntime) MailboxDepth(int)    {}
func (nopRuntime) WorkerCount(int)     {}

// Nop returns a no-op Runtime.
func Nop() Runtime { return nopRuntime{} }
