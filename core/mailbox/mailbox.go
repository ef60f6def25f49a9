// Package mailbox provides the per-actor message queue and the shared ready
// queue the worker pool consumes.
//
// A mailbox is the unit of scheduling: it appears on the ready queue at most
// once at any instant, and only while non-empty, so exactly one worker
// dispatches a given mailbox's messages at a time. Messages within a mailbox
// are delivered in push order.
package mailbox

import (
	"github.com/codewandler/actr-go/core/message"
	"github.com/codewandler/actr-go/internal/spin"
)

// Recipient handles one message at a time. ProcessMessage returns false when
// the recipient has no handler registered for the message's type, in which
// case the runtime routes the message to the fallback handler.
type Recipient interface {
	ProcessMessage(m *message.Message) bool
}

// Mailbox is a spinlocked FIFO of pending messages bound to at most one
// recipient.
//
// All mutating methods except Lock, Unlock and the documented lock-free reads
// require the caller to hold the mailbox lock.
type Mailbox struct {
	mu    spin.Lock
	name  string
	queue message.Queue
	count uint32

	recipient Recipient
	pinCount  uint32

	// nextReady threads the mailbox into the ready queue.
	nextReady *Mailbox

	// Trailing pad keeps adjacent directory slots off each other's cache
	// lines.
	_ [64]byte
}

// Lock acquires the mailbox spinlock.
func (m *Mailbox) Lock() { m.mu.Lock() }

// Unlock releases the mailbox spinlock.
func (m *Mailbox) Unlock() { m.mu.Unlock() }

// Name returns the mailbox's registered name.
func (m *Mailbox) Name() string { return m.name }

// SetName installs the mailbox's name. The mailbox must not be pinned.
func (m *Mailbox) SetName(name string) {
	if m.pinCount != 0 {
		panic("mailbox: renaming a pinned mailbox")
	}
	m.name = name
}

// Push appends msg to the queue.
func (m *Mailbox) Push(msg *message.Message) {
	m.queue.Push(msg)
	m.count++
}

// Front returns the oldest queued message without removing it, or nil.
func (m *Mailbox) Front() *message.Message { return m.queue.Front() }

// Pop removes and returns the oldest queued message, or nil.
func (m *Mailbox) Pop() *message.Message {
	msg := m.queue.Pop()
	if msg != nil {
		m.count--
	}
	return msg
}

// Empty reports whether the queue holds no messages.
func (m *Mailbox) Empty() bool { return m.count == 0 }

// Count returns the number of queued messages.
func (m *Mailbox) Count() uint32 { return m.count }

// Register binds a recipient to the mailbox. The mailbox must not be pinned
// and must not already have a recipient.
func (m *Mailbox) Register(r Recipient) {
	if m.pinCount != 0 {
		panic("mailbox: rebinding a pinned mailbox")
	}
	if m.recipient != nil {
		panic("mailbox: recipient already registered")
	}
	m.recipient = r
}

// Deregister clears the recipient binding. The mailbox must not be pinned.
func (m *Mailbox) Deregister() {
	if m.pinCount != 0 {
		panic("mailbox: unbinding a pinned mailbox")
	}
	m.recipient = nil
}

// Recipient returns the bound recipient, or nil.
func (m *Mailbox) Recipient() Recipient { return m.recipient }

// Pin freezes the recipient binding so it can be read after the lock is
// dropped. Dispatch runs the handler without the lock held.
func (m *Mailbox) Pin() { m.pinCount++ }

// Unpin releases a pin.
func (m *Mailbox) Unpin() {
	if m.pinCount == 0 {
		panic("mailbox: unpin without pin")
	}
	m.pinCount--
}

// Pinned reports whether the binding is currently frozen.
func (m *Mailbox) Pinned() bool { return m.pinCount != 0 }
