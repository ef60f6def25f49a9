// Package actor is the user-facing layer of the runtime: typed message
// handlers bound to a framework-managed mailbox.
//
// An actor is spawned with a set of handler registrations, one per message
// type:
//
//	counter, err := actor.Spawn(fw, "counter",
//	    actor.Handle(func(ctx *actor.Context, inc Increment) {
//	        total += inc.By
//	    }),
//	    actor.Handle(func(ctx *actor.Context, q Query) {
//	        actor.Send(ctx, Answer{Total: total}, ctx.From())
//	    }),
//	)
//
// Handlers for one actor never run concurrently and observe messages in the
// order they were pushed; handler state needs no locking. Messages whose
// type has no registered handler go to the framework's fallback handler.
//
// Handlers run on worker goroutines and must not block indefinitely.
package actor

import (
	"sync/atomic"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/framework"
	"github.com/codewandler/actr-go/core/mailbox"
	"github.com/codewandler/actr-go/core/message"
	"github.com/codewandler/actr-go/core/reflector"
)

// Context accompanies every handler invocation.
type Context struct {
	actor *Actor
	from  address.Address
}

// Self returns the handling actor's own address.
func (c *Context) Self() address.Address { return c.actor.addr }

// From returns the sender's address.
func (c *Context) From() address.Address { return c.from }

// Framework returns the framework hosting the actor.
func (c *Context) Framework() *framework.Framework { return c.actor.frame }

// handlerEntry dispatches one registered message type.
type handlerEntry func(ctx *Context, m *message.Message) error

// Registration adds one handler to an actor under construction.
type Registration func(a *Actor)

// Handle registers a handler for messages of type T.
func Handle[T any](fn func(ctx *Context, v T)) Registration {
	name := reflector.NameFor[T]()
	return func(a *Actor) {
		a.handlers[name] = func(ctx *Context, m *message.Message) error {
			var v T
			if err := m.Unmarshal(&v); err != nil {
				return err
			}
			fn(ctx, v)
			return nil
		}
	}
}

// Actor is a unit of concurrent computation: private state plus a table of
// typed handlers, dispatched one message at a time.
type Actor struct {
	frame    *framework.Framework
	addr     address.Address
	handlers map[string]handlerEntry
	stopped  atomic.Bool
}

var _ mailbox.Recipient = (*Actor)(nil)

// Spawn registers a new actor with fw under name (empty for a generated
// one) and returns it ready to receive.
func Spawn(fw *framework.Framework, name string, regs ...Registration) (*Actor, error) {
	a := &Actor{
		frame:    fw,
		handlers: make(map[string]handlerEntry),
	}
	for _, reg := range regs {
		reg(a)
	}

	addr, err := fw.RegisterActor(a, name)
	if err != nil {
		return nil, err
	}
	a.addr = addr
	return a, nil
}

// Address returns the actor's mailbox address.
func (a *Actor) Address() address.Address { return a.addr }

// Stop deregisters the actor. Its mailbox drains any remaining messages to
// the fallback handler.
func (a *Actor) Stop() {
	a.stopped.Store(true)
	a.frame.DeregisterActor(a.addr)
}

// ProcessMessage dispatches one message to the handler registered for its
// type. Returns false when no handler matches or the actor has been stopped;
// the runtime then routes the message to the fallback handler. Called only by
// the scheduler, never concurrently for one actor.
func (a *Actor) ProcessMessage(m *message.Message) bool {
	if a.stopped.Load() {
		return false
	}
	h, ok := a.handlers[m.TypeName()]
	if !ok {
		return false
	}
	ctx := &Context{actor: a, from: m.From()}
	if err := h(ctx, m); err != nil {
		return false
	}
	return true
}

// Send sends value from the handling actor to to. Delivery failures surface
// through the destination framework's fallback handler.
func Send[T any](ctx *Context, value T, to address.Address) bool {
	return framework.Send(ctx.Framework(), value, ctx.Self(), to)
}
