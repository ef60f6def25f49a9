package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/alloc"
	"github.com/codewandler/actr-go/core/mailbox"
	"github.com/codewandler/actr-go/core/message"
)

type recipientFunc func(m *message.Message) bool

func (f recipientFunc) ProcessMessage(m *message.Message) bool { return f(m) }

type testEnv struct {
	env      *Env
	alloc    *alloc.CachingAllocator
	fallback []*message.Message
	released []*message.Message
	panics   int
}

func newTestEnv() *testEnv {
	te := &testEnv{alloc: alloc.NewCachingAllocator()}
	te.env = &Env{
		Queue:    mailbox.NewWorkQueue(),
		Fallback: func(m *message.Message) { te.fallback = append(te.fallback, m) },
		Release:  func(m *message.Message) { te.released = append(te.released, m); m.Release(te.alloc) },
		OnPanic:  func(any, []byte, *message.Message) { te.panics++ },
	}
	return te
}

func (te *testEnv) pack(t *testing.T, v any) *message.Message {
	t.Helper()
	m, err := message.Pack(te.alloc, v, address.Zero, address.Zero)
	require.NoError(t, err)
	return m
}

type payload struct{ N int }

func TestProcess_dispatchesFrontMessage(t *testing.T) {
	te := newTestEnv()
	var mb mailbox.Mailbox

	var got []int
	mb.Lock()
	mb.Register(recipientFunc(func(m *message.Message) bool {
		var p payload
		require.NoError(t, m.Unmarshal(&p))
		got = append(got, p.N)
		return true
	}))
	mb.Push(te.pack(t, payload{N: 7}))
	mb.Unlock()

	var ctx Context
	Process(te.env, &ctx, &mb)

	require.Equal(t, []int{7}, got)
	require.Empty(t, te.fallback)
	require.Len(t, te.released, 1)
	require.True(t, te.env.Queue.Empty(), "drained mailbox is not re-enqueued")
	require.Equal(t, uint32(1), ctx.CounterValue(CounterMessagesProcessed))

	mb.Lock()
	require.True(t, mb.Empty())
	require.False(t, mb.Pinned())
	mb.Unlock()
}

func TestProcess_reenqueuesWhenMoreRemain(t *testing.T) {
	te := newTestEnv()
	var mb mailbox.Mailbox

	mb.Lock()
	mb.Register(recipientFunc(func(*message.Message) bool { return true }))
	mb.Push(te.pack(t, payload{N: 1}))
	mb.Push(te.pack(t, payload{N: 2}))
	mb.Unlock()

	var ctx Context
	Process(te.env, &ctx, &mb)

	require.Same(t, &mb, te.env.Queue.Pop(), "mailbox with one message left is re-enqueued")

	Process(te.env, &ctx, &mb)
	require.True(t, te.env.Queue.Empty())
	require.Len(t, te.released, 2)
}

func TestProcess_noRecipientGoesToFallback(t *testing.T) {
	te := newTestEnv()
	var mb mailbox.Mailbox

	mb.Lock()
	mb.Push(te.pack(t, payload{N: 1}))
	mb.Unlock()

	Process(te.env, &Context{}, &mb)

	require.Len(t, te.fallback, 1)
	require.Len(t, te.released, 1)
}

func TestProcess_unhandledTypeGoesToFallback(t *testing.T) {
	te := newTestEnv()
	var mb mailbox.Mailbox

	mb.Lock()
	mb.Register(recipientFunc(func(*message.Message) bool { return false }))
	mb.Push(te.pack(t, payload{N: 1}))
	mb.Unlock()

	Process(te.env, &Context{}, &mb)

	require.Len(t, te.fallback, 1)
}

func TestProcess_panickingHandler(t *testing.T) {
	te := newTestEnv()
	var mb mailbox.Mailbox

	mb.Lock()
	mb.Register(recipientFunc(func(*message.Message) bool { panic("boom") }))
	mb.Push(te.pack(t, payload{N: 1}))
	mb.Push(te.pack(t, payload{N: 2}))
	mb.Unlock()

	var ctx Context
	Process(te.env, &ctx, &mb)

	require.Equal(t, 1, te.panics)
	require.Empty(t, te.fallback, "a crashed handler still consumed its message")
	require.Len(t, te.released, 1)

	mb.Lock()
	require.False(t, mb.Pinned(), "pin is released on unwind")
	require.Equal(t, uint32(1), mb.Count())
	mb.Unlock()
	require.Same(t, &mb, te.env.Queue.Pop(), "remaining message keeps the mailbox scheduled")
}
