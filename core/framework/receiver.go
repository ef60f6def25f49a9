package framework

import (
	"fmt"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/alloc"
	"github.com/codewandler/actr-go/core/endpoint"
	"github.com/codewandler/actr-go/core/message"
	"github.com/codewandler/actr-go/core/reflector"
)

// Receiver accepts messages on behalf of code that is not an actor: test
// drivers, main goroutines, request/reply call sites. It registers under
// framework index 0 in the process registry, so any framework can address
// it.
//
// Handlers run inline on the sending goroutine; keep them short. Wait and
// Count let the owner block for arrivals whether or not a handler is
// registered.
type Receiver struct {
	name  string
	addr  address.Address
	ep    *endpoint.Endpoint
	log   *slog.Logger
	alloc *alloc.CachingAllocator

	mu       sync.Mutex
	cond     *sync.Cond
	handlers map[string]func(m *message.Message)
	arrived  uint32
	closed   bool
}

// ReceiverConfig parameterises a receiver. The zero value works.
type ReceiverConfig struct {
	// Name registers the receiver under a stable name. Empty generates one.
	Name string
	// Endpoint additionally publishes the name for remote senders.
	Endpoint *endpoint.Endpoint
	// Log defaults to slog.Default().
	Log *slog.Logger
}

// NewReceiver creates a receiver and claims its process-wide address.
func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	r := &Receiver{
		name:     cfg.Name,
		ep:       cfg.Endpoint,
		alloc:    alloc.NewCachingAllocator(),
		handlers: make(map[string]func(m *message.Message)),
	}
	r.cond = sync.NewCond(&r.mu)

	index := registerReceiver(r)
	if r.name == "" {
		r.name = fmt.Sprintf("recv%d-%s", index, gonanoid.Must(6))
	}
	r.addr = address.New(r.name, 0, index)
	r.log = log.With(slog.String("receiver", r.name))

	if r.ep != nil {
		if err := r.ep.Register(r.name, r.addr); err != nil {
			deregisterReceiver(index)
			return nil, err
		}
	}
	return r, nil
}

// Address returns the receiver's address.
func (r *Receiver) Address() address.Address { return r.addr }

// OnReceive registers a handler for payloads of type T, decoded from the
// wire form. Registering a second handler for the same type replaces the
// first.
func OnReceive[T any](r *Receiver, fn func(v T, from address.Address)) {
	name := reflector.NameFor[T]()
	r.mu.Lock()
	r.handlers[name] = func(m *message.Message) {
		var v T
		if err := m.Unmarshal(&v); err != nil {
			r.log.Warn("decode received message", slog.String("type", name), slog.Any("error", err))
			return
		}
		fn(v, m.From())
	}
	r.mu.Unlock()
}

// push delivers one message: run the matching handler inline, bump the
// arrival count and release the payload against the receiver's allocator.
func (r *Receiver) push(m *message.Message) {
	r.mu.Lock()
	h := r.handlers[m.TypeName()]
	r.mu.Unlock()

	if h != nil {
		h(m)
	}

	r.mu.Lock()
	r.arrived++
	r.mu.Unlock()
	r.cond.Signal()

	m.Release(r.alloc)
}

// Count returns the number of arrived, unconsumed messages.
func (r *Receiver) Count() uint32 {
	r.mu.Lock()
	n := r.arrived
	r.mu.Unlock()
	return n
}

// Wait blocks until a message has arrived, then consumes one arrival.
func (r *Receiver) Wait() {
	r.mu.Lock()
	for r.arrived == 0 {
		r.cond.Wait()
	}
	r.arrived--
	r.mu.Unlock()
}

// Close withdraws the receiver from the process registry and its endpoint.
func (r *Receiver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	if r.ep != nil {
		r.ep.Deregister(r.name)
	}
	deregisterReceiver(r.addr.Mailbox())
	r.alloc.Flush()
}
