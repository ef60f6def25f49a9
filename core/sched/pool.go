package sched

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config parameterises a worker pool.
type Config struct {
	// Initial is the starting worker target. Must be non-zero.
	Initial uint32
	// Yield selects the idle strategy.
	Yield YieldStrategy
	// NodeMask restricts workers to the set NUMA nodes.
	NodeMask uint32
	// ProcessorMask restricts workers to processors within each node.
	ProcessorMask uint32
	// Env is the dispatch environment. Required.
	Env *Env
	// Log receives pool lifecycle diagnostics. Defaults to slog.Default().
	Log *slog.Logger
	// WorkerCount observes live worker count changes. Optional.
	WorkerCount func(n int)
}

// Pool owns the worker goroutines and the manager that resizes them.
type Pool struct {
	env       *Env
	yield     YieldStrategy
	node      uint32
	procs     uint32
	log       *slog.Logger
	onWorkers func(n int)

	target  atomic.Uint32
	current atomic.Uint32
	peak    atomic.Uint32
	running atomic.Bool

	kick chan struct{}
	stop chan struct{}

	mu       sync.Mutex // guards contexts
	contexts []*Context

	workers sync.WaitGroup
	manager sync.WaitGroup
}

// NewPool creates a pool and starts its manager, which immediately brings up
// Initial workers.
func NewPool(cfg Config) *Pool {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	onWorkers := cfg.WorkerCount
	if onWorkers == nil {
		onWorkers = func(int) {}
	}

	p := &Pool{
		env:       cfg.Env,
		yield:     cfg.Yield,
		node:      cfg.NodeMask,
		procs:     cfg.ProcessorMask,
		log:       log,
		onWorkers: onWorkers,
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	p.target.Store(cfg.Initial)
	p.running.Store(true)

	p.manager.Add(1)
	go p.manage()
	p.wakeManager()

	return p
}

// SetMin raises the worker target to at least n.
func (p *Pool) SetMin(n uint32) {
	for {
		cur := p.target.Load()
		if cur >= n {
			return
		}
		if p.target.CompareAndSwap(cur, n) {
			p.wakeManager()
			return
		}
	}
}

// SetMax lowers the worker target to at most n. Excess workers retire the
// next time they wake, so convergence is bounded by message arrival.
func (p *Pool) SetMax(n uint32) {
	for {
		cur := p.target.Load()
		if cur <= n {
			return
		}
		if p.target.CompareAndSwap(cur, n) {
			p.env.Queue.Wake()
			return
		}
	}
}

// Target returns the current worker target.
func (p *Pool) Target() uint32 { return p.target.Load() }

// Num returns the number of live workers.
func (p *Pool) Num() uint32 { return p.current.Load() }

// Peak returns the highest worker count observed.
func (p *Pool) Peak() uint32 { return p.peak.Load() }

// CounterValue sums counter k over the contexts of live workers.
func (p *Pool) CounterValue(k Counter) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total uint32
	for _, c := range p.contexts {
		if c.Running() {
			total += c.CounterValue(k)
		}
	}
	return total
}

// PerWorkerCounterValues snapshots counter k for live workers into buf,
// returning the number of values written.
func (p *Pool) PerWorkerCounterValues(k Counter, buf []uint32) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.contexts {
		if n == len(buf) {
			break
		}
		if c.Running() {
			buf[n] = c.CounterValue(k)
			n++
		}
	}
	return n
}

// ResetCounters zeroes every worker context's counters.
func (p *Pool) ResetCounters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.contexts {
		c.ResetCounters()
	}
}

// Stop retires every worker and the manager. Pending work should be drained
// first; Stop does not process leftover queue entries.
func (p *Pool) Stop() {
	p.running.Store(false)
	p.target.Store(0)

	// Parked workers only notice the target change when woken.
	for p.current.Load() > 0 {
		p.env.Queue.Wake()
		time.Sleep(time.Millisecond)
	}

	close(p.stop)
	p.wakeManager()
	p.manager.Wait()
	p.workers.Wait()
}

func (p *Pool) wakeManager() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// manage reconciles the live worker count against the target. It sleeps
// until kicked by a target change or shutdown.
func (p *Pool) manage() {
	defer p.manager.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-p.kick:
		}

		for p.running.Load() {
			cur := p.current.Load()
			if cur >= p.target.Load() {
				break
			}
			if !p.current.CompareAndSwap(cur, cur+1) {
				continue
			}
			ctx := p.adoptContext()
			p.workers.Add(1)
			go p.work(ctx)

			if n := cur + 1; n > p.peak.Load() {
				p.peak.Store(n)
			}
			p.onWorkers(int(cur + 1))
		}
	}
}

// adoptContext reuses a retired worker context or creates a fresh one.
func (p *Pool) adoptContext() *Context {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.contexts {
		if !c.Running() {
			c.running.Store(true)
			return c
		}
	}
	c := &Context{id: uint32(len(p.contexts))}
	c.running.Store(true)
	p.contexts = append(p.contexts, c)
	return c
}

// work is the worker loop: pop a ready mailbox and run the dispatch step,
// idling per the yield strategy when the queue is empty. The worker retires
// itself when it finds the pool over target.
func (p *Pool) work(ctx *Context) {
	defer p.workers.Done()

	unpin := lockToProcessors(p.node, p.procs)
	if unpin != nil {
		defer unpin()
	}

	var idleRounds uint32
	for {
		if p.retire() {
			ctx.running.Store(false)
			p.onWorkers(int(p.current.Load()))
			return
		}

		mb := p.env.Queue.Pop()
		if mb == nil {
			ctx.Count(CounterYields)
			if p.idle(&idleRounds) {
				ctx.Count(CounterWakes)
				idleRounds = 0
			}
			continue
		}

		idleRounds = 0
		Process(p.env, ctx, mb)
	}
}

// retire decrements the live count if the pool is over target, claiming the
// calling worker's exit.
func (p *Pool) retire() bool {
	for {
		cur := p.current.Load()
		if cur <= p.target.Load() {
			return false
		}
		if p.current.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}
