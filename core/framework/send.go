package framework

import (
	"log/slog"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/message"
)

// Send packages value as a message from f's allocator and routes it to
// to's mailbox. It never blocks.
//
// Send returns false when f is closed, the value could not be encoded, a
// name-only address has no endpoint to resolve it (the message goes to the
// fallback handler), or a remote endpoint rejected the message. An unknown
// recipient with a resolved address is not a send
// failure: the message is consumed by the fallback handler and Send
// returns true.
func Send[T any](f *Framework, value T, from, to address.Address) bool {
	if !f.running.Load() {
		return false
	}
	m, err := message.Pack(f.alloc, value, from, to)
	if err != nil {
		f.log.Warn("encode message", slog.Any("error", err))
		return false
	}
	return f.route(m)
}

// route resolves a packed message's destination and delivers it.
func (f *Framework) route(m *message.Message) bool {
	to := m.To()
	if !to.Resolved() {
		return f.routeByName(m, to.Name())
	}
	return f.routeResolved(m, to)
}

// routeByName handles addresses carrying only a name. Names registered by a
// local framework are resolved and delivered in-process; anything else goes
// out through the endpoint.
func (f *Framework) routeByName(m *message.Message, name string) bool {
	ep := f.params.Endpoint
	if name == "" || ep == nil {
		f.consumeUndeliverable(m)
		m.Release(f.alloc)
		return false
	}
	if addr, ok := ep.Lookup(name); ok {
		return f.routeResolved(m, addr)
	}
	if ep.Send(m, name) {
		m.Release(f.alloc)
		f.sent.Add(1)
		f.metrics.MessageSent(true)
		return true
	}
	f.consumeUndeliverable(m)
	m.Release(f.alloc)
	return false
}

// routeResolved delivers to a fully resolved address: this framework,
// another framework in the process, or a receiver.
func (f *Framework) routeResolved(m *message.Message, to address.Address) bool {
	switch to.Framework() {
	case f.index:
		return f.deliver(m, to)
	case 0:
		rc := receiverAt(to.Mailbox())
		if rc == nil {
			f.consumeUndeliverable(m)
			m.Release(f.alloc)
			return true
		}
		f.sent.Add(1)
		f.metrics.MessageSent(false)
		rc.push(m)
		return true
	default:
		dest := frameworkAt(to.Framework())
		if dest == nil {
			f.consumeUndeliverable(m)
			m.Release(f.alloc)
			return true
		}
		return dest.deliver(m, to)
	}
}

// deliver pushes a message into one of this framework's mailboxes,
// scheduling the mailbox on its empty→non-empty transition. A mailbox with
// no recipient and no pending predecessors short-circuits to the fallback
// handler. Undeliverable messages are consumed here, against this
// framework's allocator.
func (f *Framework) deliver(m *message.Message, to address.Address) bool {
	mb := f.dir.Entry(to.Mailbox())
	if mb == nil {
		f.consumeUndeliverable(m)
		m.Release(f.alloc)
		return true
	}

	mb.Lock()
	if mb.Recipient() == nil && mb.Empty() {
		mb.Unlock()
		f.consumeUndeliverable(m)
		m.Release(f.alloc)
		return true
	}
	wasEmpty := mb.Empty()
	mb.Push(m)
	depth := int(mb.Count())
	if wasEmpty {
		f.queue.Push(mb)
	}
	mb.Unlock()

	f.sent.Add(1)
	f.metrics.MessageSent(false)
	f.metrics.MailboxDepth(depth)
	return true
}

// deliverInbound is the endpoint delivery hook: it re-packages an inbound
// frame against the consuming framework's allocator and delivers it.
func deliverInbound(to address.Address, typeName string, data []byte, from address.Address) bool {
	if to.Framework() == 0 {
		rc := receiverAt(to.Mailbox())
		if rc == nil {
			return false
		}
		rc.push(message.PackRaw(rc.alloc, typeName, data, from, to))
		return true
	}

	dest := frameworkAt(to.Framework())
	if dest == nil || !dest.running.Load() {
		return false
	}
	return dest.deliver(message.PackRaw(dest.alloc, typeName, data, from, to), to)
}
