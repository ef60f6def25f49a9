package sched

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/alloc"
	"github.com/codewandler/actr-go/core/mailbox"
	"github.com/codewandler/actr-go/core/message"
)

func newPoolEnv() (*Env, *alloc.CachingAllocator) {
	a := alloc.NewCachingAllocator()
	env := &Env{
		Queue:    mailbox.NewWorkQueue(),
		Fallback: func(*message.Message) {},
		Release:  func(m *message.Message) { m.Release(a) },
	}
	return env, a
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPool_spawnsToInitialTarget(t *testing.T) {
	env, _ := newPoolEnv()
	p := NewPool(Config{Initial: 4, Env: env})
	defer p.Stop()

	waitFor(t, func() bool { return p.Num() == 4 }, "4 workers")
	require.Equal(t, uint32(4), p.Target())
	require.Equal(t, uint32(4), p.Peak())
}

func TestPool_setMinRaisesTarget(t *testing.T) {
	env, _ := newPoolEnv()
	p := NewPool(Config{Initial: 2, Env: env})
	defer p.Stop()

	p.SetMin(6)
	require.Equal(t, uint32(6), p.Target())
	waitFor(t, func() bool { return p.Num() == 6 }, "6 workers")

	p.SetMin(3) // lower than target: no effect
	require.Equal(t, uint32(6), p.Target())
}

func TestPool_setMaxConverges(t *testing.T) {
	env, a := newPoolEnv()
	p := NewPool(Config{Initial: 8, Env: env})
	defer p.Stop()

	waitFor(t, func() bool { return p.Num() == 8 }, "8 workers")

	p.SetMax(2)
	require.Equal(t, uint32(2), p.Target())

	// Feed some work so even spinning workers pass the retire check.
	var mb mailbox.Mailbox
	mb.Lock()
	mb.Register(recipientFunc(func(*message.Message) bool { return true }))
	mb.Unlock()
	for i := 0; i < 100; i++ {
		m, err := message.Pack(a, payload{N: i}, address.Zero, address.Zero)
		require.NoError(t, err)
		mb.Lock()
		wasEmpty := mb.Empty()
		mb.Push(m)
		if wasEmpty {
			env.Queue.Push(&mb)
		}
		mb.Unlock()
		time.Sleep(time.Millisecond)
	}

	waitFor(t, func() bool { return p.Num() <= 2 }, "scale-down to 2")
}

func TestPool_peakIsMonotonic(t *testing.T) {
	env, _ := newPoolEnv()
	p := NewPool(Config{Initial: 2, Env: env})
	defer p.Stop()

	waitFor(t, func() bool { return p.Num() == 2 }, "2 workers")
	p.SetMin(5)
	waitFor(t, func() bool { return p.Num() == 5 }, "5 workers")
	require.Equal(t, uint32(5), p.Peak())

	p.SetMax(1)
	waitFor(t, func() bool { return p.Num() <= 1 }, "scale-down")
	require.Equal(t, uint32(5), p.Peak(), "peak survives scale-down")
	require.GreaterOrEqual(t, p.Peak(), p.Num())
}

func TestPool_processesQueuedMailboxes(t *testing.T) {
	env, a := newPoolEnv()

	var processed atomic.Int32
	var mb mailbox.Mailbox
	mb.Lock()
	mb.Register(recipientFunc(func(*message.Message) bool {
		processed.Add(1)
		return true
	}))
	mb.Unlock()

	p := NewPool(Config{Initial: 3, Env: env})
	defer p.Stop()

	const n = 500
	for i := 0; i < n; i++ {
		m, err := message.Pack(a, payload{N: i}, address.Zero, address.Zero)
		require.NoError(t, err)
		mb.Lock()
		wasEmpty := mb.Empty()
		mb.Push(m)
		if wasEmpty {
			env.Queue.Push(&mb)
		}
		mb.Unlock()
	}

	waitFor(t, func() bool { return processed.Load() == n }, "all messages processed")
	require.Equal(t, uint32(n), p.CounterValue(CounterMessagesProcessed))
}

func TestPool_singleDispatchPerMailbox(t *testing.T) {
	env, a := newPoolEnv()

	var inFlight atomic.Int32
	var violations atomic.Int32
	var mb mailbox.Mailbox
	mb.Lock()
	mb.Register(recipientFunc(func(*message.Message) bool {
		if inFlight.Add(1) > 1 {
			violations.Add(1)
		}
		time.Sleep(time.Microsecond)
		inFlight.Add(-1)
		return true
	}))
	mb.Unlock()

	p := NewPool(Config{Initial: 8, Env: env})
	defer p.Stop()

	var wg sync.WaitGroup
	var sent atomic.Int32
	for s := 0; s < 4; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				m, err := message.Pack(a, payload{N: i}, address.Zero, address.Zero)
				if err != nil {
					t.Error(err)
					return
				}
				mb.Lock()
				wasEmpty := mb.Empty()
				mb.Push(m)
				if wasEmpty {
					env.Queue.Push(&mb)
				}
				mb.Unlock()
				sent.Add(1)
			}
		}()
	}
	wg.Wait()

	waitFor(t, func() bool {
		return p.CounterValue(CounterMessagesProcessed) == uint32(sent.Load())
	}, "all messages processed")
	require.Zero(t, violations.Load(), "two workers dispatched one mailbox concurrently")
}

func TestPool_counters(t *testing.T) {
	env, _ := newPoolEnv()
	p := NewPool(Config{Initial: 2, Env: env})
	defer p.Stop()

	waitFor(t, func() bool { return p.Num() == 2 }, "2 workers")
	waitFor(t, func() bool { return p.CounterValue(CounterYields) > 0 }, "idle yields recorded")

	buf := make([]uint32, 8)
	n := p.PerWorkerCounterValues(CounterYields, buf)
	require.Equal(t, 2, n)

	p.ResetCounters()
	require.Zero(t, p.CounterValue(CounterMessagesProcessed))
}

func TestPool_strongAndAggressiveStrategies(t *testing.T) {
	for _, y := range []YieldStrategy{YieldStrong, YieldAggressive} {
		t.Run(y.String(), func(t *testing.T) {
			env, a := newPoolEnv()

			var processed atomic.Int32
			var mb mailbox.Mailbox
			mb.Lock()
			mb.Register(recipientFunc(func(*message.Message) bool {
				processed.Add(1)
				return true
			}))
			mb.Unlock()

			p := NewPool(Config{Initial: 2, Yield: y, Env: env})
			defer p.Stop()

			m, err := message.Pack(a, payload{N: 1}, address.Zero, address.Zero)
			require.NoError(t, err)
			mb.Lock()
			mb.Push(m)
			env.Queue.Push(&mb)
			mb.Unlock()

			waitFor(t, func() bool { return processed.Load() == 1 }, "message processed")
		})
	}
}

func TestParseYieldStrategy(t *testing.T) {
	for in, want := range map[string]YieldStrategy{
		"":           YieldPolite,
		"polite":     YieldPolite,
		"Strong":     YieldStrong,
		"AGGRESSIVE": YieldAggressive,
	} {
		got, err := ParseYieldStrategy(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseYieldStrategy("bogus")
	require.Error(t, err)
}
