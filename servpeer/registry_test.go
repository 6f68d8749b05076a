package servpeer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	p1 := &Peer{}
	h1 := r.Add(p1)
	require.Same(t, p1, r.Get(h1))

	r.Remove(h1)
	require.Nil(t, r.Get(h1))

	// Slot reuse must not resurrect the stale handle.
	p2 := &Peer{}
	h2 := r.Add(p2)
	require.Same(t, p2, r.Get(h2))
	require.Nil(t, r.Get(h1))
	require.NotEqual(t, h1, h2)
}

func TestRegistryLen(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 0, r.Len())
	h1 := r.Add(&Peer{})
	r.Add(&Peer{})
	require.Equal(t, 2, r.Len())
	r.Remove(h1)
	require.Equal(t, 1, r.Len())
}

func TestHandleValid(t *testing.T) {
	var zero Handle
	require.False(t, zero.Valid())
	r := NewRegistry()
	h := r.Add(&Peer{})
	require.True(t, h.Valid())
}
