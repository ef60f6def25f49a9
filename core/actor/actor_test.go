package actor_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/actor"
	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/framework"
)

type increment struct {
	By int `json:"by"`
}

type query struct{}

type answer struct {
	Total int `json:"total"`
}

func newFramework(t *testing.T) *framework.Framework {
	t.Helper()
	fw, err := framework.New(framework.Params{Workers: 2})
	require.NoError(t, err)
	t.Cleanup(func() { fw.Close() })
	return fw
}

func TestSpawn_typedDispatch(t *testing.T) {
	fw := newFramework(t)

	total := 0
	counter, err := actor.Spawn(fw, "counter",
		actor.Handle(func(ctx *actor.Context, inc increment) {
			total += inc.By
		}),
		actor.Handle(func(ctx *actor.Context, q query) {
			actor.Send(ctx, answer{Total: total}, ctx.From())
		}),
	)
	require.NoError(t, err)
	defer counter.Stop()

	rc, err := framework.NewReceiver(framework.ReceiverConfig{})
	require.NoError(t, err)
	defer rc.Close()

	got := make(chan int, 1)
	framework.OnReceive(rc, func(a answer, from address.Address) { got <- a.Total })

	for i := 1; i <= 4; i++ {
		require.True(t, framework.Send(fw, increment{By: i}, rc.Address(), counter.Address()))
	}
	require.True(t, framework.Send(fw, query{}, rc.Address(), counter.Address()))

	select {
	case v := <-got:
		require.Equal(t, 10, v)
	case <-time.After(5 * time.Second):
		t.Fatal("no answer")
	}
}

func TestSpawn_handlerStateNeedsNoLocking(t *testing.T) {
	fw := newFramework(t)

	// One actor, racy-looking state, many senders: serial dispatch makes
	// the unsynchronized increment safe.
	count := 0
	a, err := actor.Spawn(fw, "",
		actor.Handle(func(ctx *actor.Context, inc increment) { count++ }),
	)
	require.NoError(t, err)
	defer a.Stop()

	const n = 2000
	for i := 0; i < n; i++ {
		require.True(t, framework.Send(fw, increment{By: 1}, address.Zero, a.Address()))
	}

	deadline := time.Now().Add(5 * time.Second)
	for count != n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, n, count)
}

func TestSpawn_contextIdentities(t *testing.T) {
	fw := newFramework(t)

	type probe struct{}
	type seen struct {
		self, from address.Address
		sameFw     bool
	}
	checked := make(chan seen, 1)

	sender := address.New("probe-sender", 0, 77)
	a, err := actor.Spawn(fw, "introspect",
		actor.Handle(func(ctx *actor.Context, p probe) {
			checked <- seen{self: ctx.Self(), from: ctx.From(), sameFw: ctx.Framework() == fw}
		}),
	)
	require.NoError(t, err)
	defer a.Stop()

	require.True(t, framework.Send(fw, probe{}, sender, a.Address()))
	select {
	case s := <-checked:
		require.True(t, s.self.Equal(a.Address()))
		require.True(t, s.from.Equal(sender))
		require.True(t, s.sameFw)
	case <-time.After(5 * time.Second):
		t.Fatal("handler never ran")
	}
}

func TestActor_stopDrainsToFallback(t *testing.T) {
	fw := newFramework(t)

	var fallback atomic.Int32
	fw.SetFallbackHandler(func(address.Address) { fallback.Add(1) })

	block := make(chan struct{})
	a, err := actor.Spawn(fw, "stopper",
		actor.Handle(func(ctx *actor.Context, inc increment) { <-block }),
	)
	require.NoError(t, err)

	// First message parks the single dispatcher; the second stays queued.
	require.True(t, framework.Send(fw, increment{By: 1}, address.Zero, a.Address()))
	require.True(t, framework.Send(fw, increment{By: 2}, address.Zero, a.Address()))
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() { a.Stop(); close(done) }()
	time.Sleep(20 * time.Millisecond)
	close(block) // let the pinned dispatch finish so Stop can unbind

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	deadline := time.Now().Add(5 * time.Second)
	for fallback.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, int32(1), fallback.Load(), "queued message drains to fallback after stop")
}

func TestSpawn_duplicateNameFails(t *testing.T) {
	fw := newFramework(t)

	a, err := actor.Spawn(fw, "dup")
	require.NoError(t, err)
	defer a.Stop()

	_, err = actor.Spawn(fw, "dup")
	require.Error(t, err)
}
