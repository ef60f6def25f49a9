package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress_equality(t *testing.T) {
	a := New("a", 1, 2)
	b := New("b", 1, 2)
	c := New("a", 1, 3)

	require.True(t, a.Equal(b), "names do not participate in equality")
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(Zero))
}

func TestAddress_resolved(t *testing.T) {
	require.False(t, Zero.Resolved())
	require.False(t, Named("only-a-name").Resolved())
	require.True(t, New("", 1, 1).Resolved())
	require.True(t, New("", 0, 7).Resolved(), "receiver addresses have framework index 0")
}
