// Package sched executes ready mailboxes on a dynamically sized pool of
// workers.
//
// Workers pop mailboxes off the shared ready queue and run the dispatch step
// in [Process]: pin the mailbox, run the recipient's handler for the front
// message without the mailbox lock held, then pop the message and re-enqueue
// the mailbox if more remain. Because a mailbox stays non-empty for the whole
// step and is only ever enqueued on its empty→non-empty transition, each
// mailbox is dispatched by at most one worker at a time.
//
// A manager goroutine reconciles the number of live workers against an
// atomic target: it spawns workers while the pool is under target, and
// workers that wake to find the pool over target retire themselves. Raising
// and lowering the target are [Pool.SetMin] and [Pool.SetMax]; the last call
// wins on conflict.
//
// Idle behaviour is configurable: polite workers park on the ready queue's
// condition after a short spin, strong workers spin and yield the processor
// but never sleep, aggressive workers only ever spin.
package sched
