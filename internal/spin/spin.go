// Package spin provides a tiny test-and-set spinlock and the staged backoff
// helpers used by the runtime's idle loops.
//
// The critical sections guarded by these locks are a handful of pointer moves,
// so a spinlock beats a mutex on the hot send/dispatch path. Anything that can
// block for real (handler execution, transport I/O) must not run under one.
package spin

import (
	"runtime"
	"sync/atomic"
)

// Lock is a test-and-set spinlock. The zero value is unlocked.
// It implements sync.Locker, so it can back a sync.Cond.
type Lock struct {
	state atomic.Uint32
}

// Lock acquires the lock, spinning until it is available.
func (l *Lock) Lock() {
	var backoff uint32
	for !l.TryLock() {
		Backoff(&backoff)
	}
}

// TryLock acquires the lock without spinning. Returns false if held elsewhere.
func (l *Lock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Calling Unlock on an unlocked Lock is a bug.
func (l *Lock) Unlock() {
	l.state.Store(0)
}

// Backoff spins with escalating politeness. The counter accumulates across
// calls and is reset by the caller once it makes progress.
func Backoff(counter *uint32) {
	*counter++
	switch {
	case *counter < 10:
		Pause(1)
	case *counter < 20:
		Pause(50)
	default:
		runtime.Gosched()
	}
}

// Pause burns a few cycles without surrendering the OS thread, leaving the
// core's second hyperthread room to proceed.
func Pause(n uint32) {
	for i := uint32(0); i < n; i++ {
		spinHint()
	}
}

//go:noinline
func spinHint() {}
