package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTAITimeValid(t *testing.T) {
	tai, err := ParseTAITime("10:500", "requested_time")
	require.NoError(t, err)
	require.Equal(t, int64(10), tai.Secs)
	require.Equal(t, int64(500), tai.Nanos)
	require.Equal(t, "10:500", tai.String())
}

func TestParseTAITimeRejectsMalformed(t *testing.T) {
	cases := []string{"10", "10:20:30", "abc:10", "10:abc", ""}
	for _, c := range cases {
		_, err := ParseTAITime(c, "requested_time")
		require.Error(t, err, "expected error for %q", c)
		fe, ok := err.(*FieldError)
		require.True(t, ok)
		require.Equal(t, "requested_time", fe.Field)
	}
}

func TestTAITimeAddAndSub(t *testing.T) {
	base := TAITime{Secs: 100, Nanos: 900_000_000}
	shifted := base.Add(200 * time.Millisecond)
	require.Equal(t, int64(101), shifted.Secs)
	require.Equal(t, int64(100_000_000), shifted.Nanos)

	diff := shifted.Sub(base)
	require.Equal(t, 200*time.Millisecond, diff)
}

func TestManualClockAdvanceFiresDueTimers(t *testing.T) {
	mc := NewManualClock(TAITime{Secs: 0, Nanos: 0})
	fired := false
	mc.After(1*time.Second, func() { fired = true })

	mc.Advance(500 * time.Millisecond)
	require.False(t, fired)

	mc.Advance(600 * time.Millisecond)
	require.True(t, fired)
}

func TestManualClockCancelPreventsFire(t *testing.T) {
	mc := NewManualClock(TAITime{})
	fired := false
	h := mc.After(1*time.Second, func() { fired = true })
	mc.Cancel(h)
	mc.Advance(2 * time.Second)
	require.False(t, fired)
}
