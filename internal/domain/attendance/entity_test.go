package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 25, hour, minute, 0, 0, msk)
}

func TestDayState_ToggleLaw(t *testing.T) {
	state := EmptyDay()
	assert.Equal(t, StateEmpty, state.Kind())

	state, kind := state.Next(at(8, 0))
	assert.Equal(t, EventArrival, kind)
	assert.Equal(t, StateArrivalOnly, state.Kind())

	state, kind = state.Next(at(17, 0))
	assert.Equal(t, EventDeparture, kind)
	assert.Equal(t, StateComplete, state.Kind())
	a, _ := state.Arrival()
	assert.Equal(t, at(8, 0), a)

	// third scan re-opens the day and overwrites the pair
	state, kind = state.Next(at(18, 0))
	assert.Equal(t, EventArrival, kind)
	assert.Equal(t, StateArrivalOnly, state.Kind())
	a, _ = state.Arrival()
	assert.Equal(t, at(18, 0), a)
	_, ok := state.Departure()
	assert.False(t, ok)
}

func TestDayState_Close(t *testing.T) {
	open := ArrivedAt(at(9, 0))
	closed, changed := open.Close(at(17, 0))
	assert.True(t, changed)
	assert.Equal(t, StateComplete, closed.Kind())

	_, changed = closed.Close(at(18, 0))
	assert.False(t, changed)

	_, changed = EmptyDay().Close(at(17, 0))
	assert.False(t, changed)
}

func TestStateFromTimes(t *testing.T) {
	a, d := at(9, 0), at(18, 0)

	state, err := StateFromTimes(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, state.Kind())

	state, err = StateFromTimes(&a, nil)
	require.NoError(t, err)
	assert.Equal(t, StateArrivalOnly, state.Kind())

	state, err = StateFromTimes(&a, &d)
	require.NoError(t, err)
	gotA, gotD := state.Times()
	assert.Equal(t, a, *gotA)
	assert.Equal(t, d, *gotD)

	_, err = StateFromTimes(nil, &d)
	assert.ErrorIs(t, err, ErrDepartureWithoutArrival)
}

func TestDayState_WorkedMinutes(t *testing.T) {
	minutes, ok := CompletedAt(at(9, 0), at(18, 0)).WorkedMinutes(msk)
	require.True(t, ok)
	assert.Equal(t, 540, minutes)
	assert.Equal(t, 9.0, Hours(minutes))

	// 23:30 -> 00:15 spans midnight
	minutes, ok = CompletedAt(at(23, 30), at(0, 15)).WorkedMinutes(msk)
	require.True(t, ok)
	assert.Equal(t, 45, minutes)
	assert.Equal(t, 0.75, float64(minutes)/60)

	// stored instants are read on the attendance zone's clock
	minutes, _ = CompletedAt(at(9, 0).UTC(), at(18, 0).UTC()).WorkedMinutes(msk)
	assert.Equal(t, 540, minutes)

	_, ok = ArrivedAt(at(9, 0)).WorkedMinutes(msk)
	assert.False(t, ok)
}

func TestHours_RoundsToOneDecimal(t *testing.T) {
	assert.Equal(t, 0.8, Hours(45))
	assert.Equal(t, 8.3, Hours(500))
	assert.Equal(t, 0.0, Hours(0))
}
