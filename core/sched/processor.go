package sched

import (
	"runtime/debug"

	"github.com/codewandler/actr-go/core/mailbox"
	"github.com/codewandler/actr-go/core/message"
)

// Env is the dispatch environment shared by all workers of one framework.
type Env struct {
	// Queue is the shared ready queue.
	Queue *mailbox.WorkQueue
	// Fallback consumes messages with no recipient or no matching handler.
	Fallback func(m *message.Message)
	// Release returns a consumed message's payload to the framework's
	// allocator.
	Release func(m *message.Message)
	// OnPanic observes a recovered handler panic. The message still counts
	// as consumed and the mailbox stays consistent.
	OnPanic func(recovered any, stack []byte, m *message.Message)
}

// Process runs the dispatch step for one ready mailbox: deliver the front
// message, then pop it and re-enqueue the mailbox if more remain.
//
// The front message is popped only after dispatch, so the mailbox never
// appears empty mid-step; combined with enqueue-on-empty→non-empty, this
// keeps every mailbox owned by at most one worker. The recipient binding is
// pinned so the handler can run without the mailbox lock held.
func Process(env *Env, ctx *Context, mb *mailbox.Mailbox) {
	ctx.Count(CounterMessagesProcessed)

	mb.Lock()
	mb.Pin()
	r := mb.Recipient()
	msg := mb.Front()
	mb.Unlock()

	handled := dispatch(env, r, msg)

	mb.Lock()
	mb.Unpin()
	mb.Unlock()

	if !handled {
		env.Fallback(msg)
	}

	mb.Lock()
	mb.Pop()
	if !mb.Empty() {
		env.Queue.Push(mb)
	}
	mb.Unlock()

	env.Release(msg)
}

// dispatch runs the recipient's handler with panic containment. Returns
// false when the message found no recipient or no matching handler.
func dispatch(env *Env, r mailbox.Recipient, msg *message.Message) (handled bool) {
	if r == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			// A crashed handler consumed its message; it is not
			// rerouted to the fallback.
			handled = true
			if env.OnPanic != nil {
				env.OnPanic(rec, debug.Stack(), msg)
			}
		}
	}()
	return r.ProcessMessage(msg)
}
