package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeatTable_Occupy(t *testing.T) {
	table := NewSeatTable(4)
	require.Equal(t, 4, table.Len())

	seat, err := table.Occupy(1, "u1")
	require.NoError(t, err)
	require.Equal(t, UserID("u1"), seat.User)
	require.Equal(t, 1, seat.Index)

	// Same seat again by someone else.
	_, err = table.Occupy(1, "u2")
	require.ErrorIs(t, err, ErrSeatOccupied)

	// Same user on another seat.
	_, err = table.Occupy(2, "u1")
	require.ErrorIs(t, err, ErrUserAlreadySeated)

	// Out of range.
	_, err = table.Occupy(4, "u3")
	require.ErrorIs(t, err, ErrSeatIndex)
	_, err = table.Occupy(-1, "u3")
	require.ErrorIs(t, err, ErrSeatIndex)
}

func TestSeatTable_OccupyClosedSeat(t *testing.T) {
	table := NewSeatTable(2)
	_, changed, _, err := table.SetClosed(0, true)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = table.Occupy(0, "u1")
	require.ErrorIs(t, err, ErrSeatClosed)
}

func TestSeatTable_Vacate(t *testing.T) {
	table := NewSeatTable(2)
	_, err := table.Vacate(0)
	require.ErrorIs(t, err, ErrSeatEmpty)

	_, err = table.Occupy(0, "u1")
	require.NoError(t, err)

	user, err := table.Vacate(0)
	require.NoError(t, err)
	require.Equal(t, UserID("u1"), user)

	seat, err := table.Get(0)
	require.NoError(t, err)
	require.True(t, seat.Vacant())

	// u1 may sit elsewhere now.
	_, err = table.Occupy(1, "u1")
	require.NoError(t, err)
}

func TestSeatTable_SetMuteIdempotent(t *testing.T) {
	table := NewSeatTable(1)

	seat, changed, err := table.SetMute(0, true)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, seat.Muted)

	_, changed, err = table.SetMute(0, true)
	require.NoError(t, err)
	require.False(t, changed)

	_, changed, err = table.SetMute(0, false)
	require.NoError(t, err)
	require.True(t, changed)
}

func TestSeatTable_SetClosedEvictsOccupant(t *testing.T) {
	table := NewSeatTable(3)
	_, err := table.Occupy(2, "u4")
	require.NoError(t, err)

	seat, changed, evicted, err := table.SetClosed(2, true)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, UserID("u4"), evicted)
	require.True(t, seat.Closed)
	require.True(t, seat.Vacant())

	// Reopen: no occupant comes back.
	seat, changed, evicted, err = table.SetClosed(2, false)
	require.NoError(t, err)
	require.True(t, changed)
	require.Empty(t, evicted)
	require.False(t, seat.Closed)
	require.True(t, seat.Vacant())
}

func TestSeatTable_Snapshot(t *testing.T) {
	table := NewSeatTable(2)
	_, err := table.Occupy(0, "u1")
	require.NoError(t, err)

	snap := table.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, UserID("u1"), snap[0].User)

	// Snapshot is a copy, not a view.
	snap[0].User = "other"
	seat, err := table.Get(0)
	require.NoError(t, err)
	require.Equal(t, UserID("u1"), seat.User)
}

func TestSeatTable_SeatOf(t *testing.T) {
	table := NewSeatTable(3)
	_, ok := table.SeatOf("u1")
	require.False(t, ok)

	_, err := table.Occupy(2, "u1")
	require.NoError(t, err)

	idx, ok := table.SeatOf("u1")
	require.True(t, ok)
	require.Equal(t, 2, idx)

	// The empty id never matches a vacant seat.
	_, ok = table.SeatOf("")
	require.False(t, ok)
}
