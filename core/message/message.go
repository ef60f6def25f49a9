// Package message defines the type-erased envelope the runtime routes
// between mailboxes.
//
// A message pairs a payload, encoded to JSON in a block owned by a caching
// allocator, with the stable name of its Go type. Handler registries key on
// that name and decode the payload back into the typed value. The envelope is
// immutable after creation; the worker that consumes it releases the payload
// block, against the consuming framework's allocator.
package message

import (
	"encoding/json"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/alloc"
	"github.com/codewandler/actr-go/core/reflector"
)

// Message is an immutable envelope carrying one payload between mailboxes.
type Message struct {
	typeName string
	data     []byte
	from     address.Address
	to       address.Address

	// next threads the message into its mailbox queue.
	next *Message
}

// Pack encodes value into a block from a and wraps it in a Message.
func Pack(a *alloc.CachingAllocator, value any, from, to address.Address) (*Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return PackRaw(a, reflector.NameOf(value), data, from, to), nil
}

// PackRaw wraps an already-encoded payload in a Message. The bytes are copied
// into a block owned by a; the caller keeps ownership of data.
func PackRaw(a *alloc.CachingAllocator, typeName string, data []byte, from, to address.Address) *Message {
	block := a.Allocate(len(data))
	copy(block, data)
	return &Message{typeName: typeName, data: block, from: from, to: to}
}

// TypeName returns the stable name of the payload's type.
func (m *Message) TypeName() string { return m.typeName }

// Data returns the encoded payload. The slice is owned by the message and
// must not be retained past Release.
func (m *Message) Data() []byte { return m.data }

// Size returns the encoded payload length in bytes.
func (m *Message) Size() int { return len(m.data) }

// From returns the sender's address.
func (m *Message) From() address.Address { return m.from }

// To returns the recipient's address.
func (m *Message) To() address.Address { return m.to }

// Unmarshal decodes the payload into v.
func (m *Message) Unmarshal(v any) error {
	return json.Unmarshal(m.data, v)
}

// Release returns the payload block to a. The allocator need not be the one
// that created the block; cross-framework messages are released against the
// consumer's allocator.
func (m *Message) Release(a *alloc.CachingAllocator) {
	if m.data != nil {
		a.Free(m.data)
		m.data = nil
	}
}
