package endpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/alloc"
	"github.com/codewandler/actr-go/core/message"
)

type note struct {
	Text string `json:"text"`
}

func TestNameRegistry(t *testing.T) {
	r := NewNameRegistry()
	addr := address.New("a", 1, 2)

	require.True(t, r.Add("a", addr))
	require.False(t, r.Add("a", addr), "duplicate names rejected")

	got, ok := r.Lookup("a")
	require.True(t, ok)
	require.True(t, got.Equal(addr))

	r.Remove("a")
	_, ok = r.Lookup("a")
	require.False(t, ok)
}

func TestEndpoint_registerLookupDeregister(t *testing.T) {
	hub := NewLoopback()
	ep, err := New(Config{Name: "ep1", Transport: hub})
	require.NoError(t, err)
	defer ep.Close()

	addr := address.New("alice", 1, 1)
	require.NoError(t, ep.Register("alice", addr))
	require.ErrorIs(t, ep.Register("alice", addr), ErrNameTaken)

	got, ok := ep.Lookup("alice")
	require.True(t, ok)
	require.True(t, got.Equal(addr))

	ep.Deregister("alice")
	_, ok = ep.Lookup("alice")
	require.False(t, ok)
}

func TestEndpoint_sendAcrossLoopback(t *testing.T) {
	hub := NewLoopback()

	ep1, err := New(Config{Name: "ep1", Transport: hub})
	require.NoError(t, err)
	ep2, err := New(Config{Name: "ep2", Transport: hub})
	require.NoError(t, err)

	type delivered struct {
		to       address.Address
		typeName string
		data     []byte
		from     address.Address
	}
	got := make(chan delivered, 1)
	ep2.Bind(func(to address.Address, typeName string, data []byte, from address.Address) bool {
		got <- delivered{to, typeName, data, from}
		return true
	})

	bob := address.New("bob", 3, 9)
	require.NoError(t, ep2.Register("bob", bob))

	a := alloc.NewCachingAllocator()
	from := address.New("alice", 1, 4)
	m, err := message.Pack(a, note{Text: "hello"}, from, address.Named("bob"))
	require.NoError(t, err)

	require.True(t, ep1.Send(m, "bob"))

	d := <-got
	require.True(t, d.to.Equal(bob))
	require.Equal(t, "bob", d.to.Name())
	require.Equal(t, m.TypeName(), d.typeName)
	require.JSONEq(t, `{"text":"hello"}`, string(d.data))
	require.True(t, d.from.Equal(from))
	require.Equal(t, "alice", d.from.Name())
}

func TestEndpoint_sendToUnknownNameFails(t *testing.T) {
	hub := NewLoopback()
	ep, err := New(Config{Name: "ep", Transport: hub})
	require.NoError(t, err)

	a := alloc.NewCachingAllocator()
	m, err := message.Pack(a, note{Text: "x"}, address.Zero, address.Named("nobody"))
	require.NoError(t, err)

	require.False(t, ep.Send(m, "nobody"))
}

func TestLoopback_closedRejects(t *testing.T) {
	hub := NewLoopback()
	require.NoError(t, hub.Close())

	_, err := hub.Subscribe("x", func([]byte) {})
	require.Error(t, err)
	require.Error(t, hub.Publish("x", nil))
}
