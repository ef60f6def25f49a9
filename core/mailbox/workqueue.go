package mailbox

import (
	"sync"

	"github.com/codewandler/actr-go/internal/spin"
)

// WorkQueue is the shared FIFO of ready mailboxes consumed by the worker
// pool. A mailbox is enqueued exactly when it transitions empty→non-empty,
// or when a worker drains one message and finds more remaining; the caller
// holds the mailbox lock across Push for the transition check, which keeps
// each mailbox on the queue at most once.
//
// The queue is guarded by a single spinlock. Sleep and Wake exist for the
// polite idle strategy: a worker that found the queue empty can park on the
// queue's condition until the next Push.
type WorkQueue struct {
	mu   spin.Lock
	cond *sync.Cond

	head *Mailbox
	tail *Mailbox
}

// NewWorkQueue creates an empty ready queue.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends mb and wakes one sleeping worker.
func (q *WorkQueue) Push(mb *Mailbox) {
	q.mu.Lock()
	mb.nextReady = nil
	if q.tail == nil {
		q.head = mb
	} else {
		q.tail.nextReady = mb
	}
	q.tail = mb
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop removes and returns the oldest ready mailbox, or nil. Never blocks.
func (q *WorkQueue) Pop() *Mailbox {
	q.mu.Lock()
	mb := q.head
	if mb != nil {
		q.head = mb.nextReady
		if q.head == nil {
			q.tail = nil
		}
		mb.nextReady = nil
	}
	q.mu.Unlock()
	return mb
}

// Empty reports whether the queue holds no mailboxes.
func (q *WorkQueue) Empty() bool {
	q.mu.Lock()
	empty := q.head == nil
	q.mu.Unlock()
	return empty
}

// Sleep parks the caller until the queue is signalled, returning immediately
// if work is already queued. Wakeups may be spurious; callers re-check state.
func (q *WorkQueue) Sleep() {
	q.mu.Lock()
	if q.head == nil {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// Wake wakes every sleeping worker, typically after a target-count change or
// at shutdown.
func (q *WorkQueue) Wake() {
	q.cond.Broadcast()
}
