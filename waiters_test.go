package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaiterSetTakeEmptiesAndReturnsFIFO(t *testing.T) {
	w := NewWaiterSet(0)
	require.NoError(t, w.Register(1, DataRequest{Filter: 0, Max: 1}))
	require.NoError(t, w.Register(2, DataRequest{Filter: 0, Max: 2}))

	taken := w.Take()
	require.Len(t, taken, 2)
	require.Equal(t, ConnectionId(1), taken[0].id)
	require.Equal(t, ConnectionId(2), taken[1].id)
	require.Zero(t, w.Len())

	require.Nil(t, w.Take(), "taking an empty set returns nil")
}

func TestWaiterSetRegisterRespectsCapacity(t *testing.T) {
	w := NewWaiterSet(1)
	require.NoError(t, w.Register(1, DataRequest{}))
	require.ErrorIs(t, w.Register(2, DataRequest{}), ErrWaiterSetFull)
}

func TestWaiterSetRemoveOnlyTargetsConnection(t *testing.T) {
	w := NewWaiterSet(0)
	require.NoError(t, w.Register(1, DataRequest{Max: 1}))
	require.NoError(t, w.Register(2, DataRequest{Max: 2}))
	require.NoError(t, w.Register(1, DataRequest{Max: 3}))

	removed := w.Remove(1)
	require.Len(t, removed, 2)
	require.Equal(t, 1, w.Len(), "only connection 2's entry should remain")
}
