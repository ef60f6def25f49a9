package framework

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/alloc"
	"github.com/codewandler/actr-go/core/directory"
	"github.com/codewandler/actr-go/core/mailbox"
	"github.com/codewandler/actr-go/core/message"
	"github.com/codewandler/actr-go/core/metrics"
	"github.com/codewandler/actr-go/core/sched"
	"github.com/codewandler/actr-go/internal/spin"
)

// ErrStopped is returned when registering against a closed framework.
var ErrStopped = errors.New("framework: stopped")

// Framework is one actor runtime instance: directory, allocator, ready
// queue, worker pool and fallback handler.
type Framework struct {
	params  Params
	name    string
	index   uint32
	log     *slog.Logger
	metrics metrics.Runtime

	alloc    *alloc.CachingAllocator
	dir      *directory.Directory
	queue    *mailbox.WorkQueue
	pool     *sched.Pool
	fallback *FallbackHandlers

	running atomic.Bool
	sent    atomic.Uint32
}

// New creates a framework, claims its process-wide index and brings up the
// worker pool.
func New(params Params) (*Framework, error) {
	params = params.withDefaults()

	f := &Framework{
		params:  params,
		alloc:   alloc.NewCachingAllocator(),
		dir:     directory.New(),
		queue:   mailbox.NewWorkQueue(),
		metrics: params.Metrics,
	}
	f.index = registerFramework(f)

	f.name = params.Name
	if f.name == "" {
		f.name = fmt.Sprintf("fw%d-%s", f.index, gonanoid.Must(6))
	}
	f.log = params.Log.With(slog.String("framework", f.name))
	f.fallback = NewFallbackHandlers(f.log)

	env := &sched.Env{
		Queue:    f.queue,
		Fallback: f.consumeUndeliverable,
		Release:  func(m *message.Message) { m.Release(f.alloc) },
		OnPanic: func(recovered any, stack []byte, m *message.Message) {
			f.log.Error("handler panicked",
				slog.Any("recovered", recovered),
				slog.String("type", m.TypeName()),
				slog.String("stack", string(stack)))
		},
	}
	f.pool = sched.NewPool(sched.Config{
		Initial:       params.Workers,
		Yield:         params.Yield,
		NodeMask:      params.NodeMask,
		ProcessorMask: params.ProcessorMask,
		Env:           env,
		Log:           f.log,
		WorkerCount:   f.metrics.WorkerCount,
	})

	if ep := params.Endpoint; ep != nil {
		ep.Bind(deliverInbound)
	}

	f.running.Store(true)
	f.log.Debug("framework started", slog.Uint64("index", uint64(f.index)))
	return f, nil
}

// Name returns the framework's name.
func (f *Framework) Name() string { return f.name }

// Index returns the framework's process-wide index.
func (f *Framework) Index() uint32 { return f.index }

// Close drains the ready queue, retires the workers, flushes the allocator
// and releases the framework's index. Actors should be stopped first;
// closing a framework that still owns live actors is a caller bug and is
// logged.
func (f *Framework) Close() error {
	if !f.running.CompareAndSwap(true, false) {
		return nil
	}

	// Let in-flight work drain before retiring workers, so no queued
	// message is stranded.
	var backoff uint32
	for !f.queue.Empty() {
		spin.Backoff(&backoff)
	}
	f.pool.Stop()

	if n := f.dir.Len(); n > 0 {
		f.log.Error("framework closed with live actors", slog.Int("actors", n))
	}

	f.alloc.Flush()
	deregisterFramework(f.index)
	f.log.Debug("framework stopped")
	return nil
}

// RegisterActor binds a recipient to a fresh mailbox and returns its
// address. An empty name gets a generated one, scoped by the framework and
// endpoint names. Called by the actor layer; most users want actor.Spawn.
func (f *Framework) RegisterActor(r mailbox.Recipient, name string) (address.Address, error) {
	if !f.running.Load() {
		return address.Zero, ErrStopped
	}

	if name == "" {
		name = f.generateName()
	}

	index, mb, err := f.dir.Register(name)
	if err != nil {
		return address.Zero, err
	}

	mb.Lock()
	mb.Register(r)
	mb.Unlock()

	addr := address.New(name, f.index, index)

	if ep := f.params.Endpoint; ep != nil {
		if err := ep.Register(name, addr); err != nil {
			mb.Lock()
			mb.Deregister()
			mb.Unlock()
			f.dir.Release(index)
			return address.Zero, err
		}
	}
	return addr, nil
}

// DeregisterActor clears the recipient binding behind addr. If the mailbox
// is mid-dispatch, Deregister waits for the pin to drop first. Messages still
// queued once the binding is cleared drain to the fallback handler. The slot
// and its name are released only if the queue is already empty at that
// point; otherwise they stay allocated.
func (f *Framework) DeregisterActor(addr address.Address) {
	if ep := f.params.Endpoint; ep != nil && addr.Name() != "" {
		ep.Deregister(addr.Name())
	}

	mb := f.dir.Entry(addr.Mailbox())
	if mb == nil {
		return
	}

	var backoff uint32
	for {
		mb.Lock()
		if !mb.Pinned() {
			if mb.Recipient() != nil {
				mb.Deregister()
			}
			empty := mb.Empty()
			mb.Unlock()
			if empty {
				f.dir.Release(addr.Mailbox())
			}
			return
		}
		mb.Unlock()
		spin.Backoff(&backoff)
	}
}

// SetFallbackHandler installs a typed fallback handler, replacing any
// previously installed handler of either shape.
func (f *Framework) SetFallbackHandler(h TypedFallback) {
	f.fallback.SetTyped(h)
}

// SetBlindFallbackHandler installs a blind fallback handler, replacing any
// previously installed handler of either shape.
func (f *Framework) SetBlindFallbackHandler(h BlindFallback) {
	f.fallback.SetBlind(h)
}

// SetMinWorkers raises the worker target to at least n.
func (f *Framework) SetMinWorkers(n uint32) {
	if n == 0 {
		return
	}
	f.pool.SetMin(n)
}

// SetMaxWorkers lowers the worker target to at most n. A zero n is clamped
// to one; a framework never runs with no workers.
func (f *Framework) SetMaxWorkers(n uint32) {
	if n == 0 {
		n = 1
	}
	f.pool.SetMax(n)
}

// MinWorkers returns the current worker target.
func (f *Framework) MinWorkers() uint32 { return f.pool.Target() }

// MaxWorkers returns the current worker target. Min and max report the same
// single target; SetMinWorkers and SetMaxWorkers clamp it from either side.
func (f *Framework) MaxWorkers() uint32 { return f.pool.Target() }

// NumWorkers returns the number of live workers.
func (f *Framework) NumWorkers() uint32 { return f.pool.Num() }

// PeakWorkers returns the highest worker count observed.
func (f *Framework) PeakWorkers() uint32 { return f.pool.Peak() }

// consumeUndeliverable routes a message with no recipient, or no matching
// handler, to the fallback handler.
func (f *Framework) consumeUndeliverable(m *message.Message) {
	f.metrics.MessageUndelivered()
	f.fallback.Handle(m)
}

// generateName builds a unique scoped mailbox name in the form
// endpoint.framework.suffix.
func (f *Framework) generateName() string {
	suffix := gonanoid.Must(8)
	if ep := f.params.Endpoint; ep != nil && ep.Name() != "" {
		return fmt.Sprintf("%s.%s.%s", ep.Name(), f.name, suffix)
	}
	return fmt.Sprintf("%s.%s", f.name, suffix)
}
