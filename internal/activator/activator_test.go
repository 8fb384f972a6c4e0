package activator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nmos-cm/connection-core/internal/clock"
)

type fakeTarget struct {
	locked     bool
	activated  int
	failNextN  int
	activateFn func() error
}

func (f *fakeTarget) Lock()   { f.locked = true }
func (f *fakeTarget) Unlock() { f.locked = false }
func (f *fakeTarget) Activate() error {
	f.activated++
	if f.activateFn != nil {
		return f.activateFn()
	}
	return nil
}

func TestParseImmediateActivatesAndMovesToActive(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{Secs: 1000})
	target := &fakeTarget{}
	a := New([]Target{target}, c)

	status, rec, err := a.Parse(ActivationRequest{Mode: ModeImmediate})
	require.NoError(t, err)
	require.Equal(t, 200, status)
	require.Equal(t, 1, target.activated)
	require.NotNil(t, rec.Mode)
	require.Equal(t, ModeImmediate, *rec.Mode)

	last := a.GetLastRequest()
	require.Nil(t, last.Mode)

	active := a.GetActiveRequest()
	require.Equal(t, ModeImmediate, *active.Mode)
}

func TestParseScheduledAbsoluteArmsAndFiresOnAdvance(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{Secs: 1000})
	target := &fakeTarget{}
	a := New([]Target{target}, c)

	status, rec, err := a.Parse(ActivationRequest{Mode: ModeScheduledAbsolute, RequestedTime: "1005:0"})
	require.NoError(t, err)
	require.Equal(t, 202, status)
	require.Equal(t, "1005:0", *rec.RequestedTime)
	require.True(t, target.locked)
	require.Equal(t, 0, target.activated)

	c.Advance(5 * time.Second)
	require.Equal(t, 1, target.activated)
	require.False(t, target.locked)

	active := a.GetActiveRequest()
	require.Equal(t, ModeScheduledAbsolute, *active.Mode)
}

func TestParseScheduledRelativeArms(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{Secs: 1000})
	target := &fakeTarget{}
	a := New([]Target{target}, c)

	status, rec, err := a.Parse(ActivationRequest{Mode: ModeScheduledRelative, RequestedTime: "2:500000000"})
	require.NoError(t, err)
	require.Equal(t, 202, status)
	require.Equal(t, "1002:500000000", *rec.ActivationTime)

	c.Advance(2 * time.Second)
	require.Equal(t, 0, target.activated)
	c.Advance(600 * time.Millisecond)
	require.Equal(t, 1, target.activated)
}

func TestParseRejectsReschedulingWhileArmed(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{Secs: 1000})
	target := &fakeTarget{}
	a := New([]Target{target}, c)

	_, _, err := a.Parse(ActivationRequest{Mode: ModeScheduledAbsolute, RequestedTime: "1005:0"})
	require.NoError(t, err)

	_, _, err = a.Parse(ActivationRequest{Mode: ModeScheduledAbsolute, RequestedTime: "1010:0"})
	require.ErrorIs(t, err, ErrConflict)

	_, _, err = a.Parse(ActivationRequest{Mode: ModeImmediate})
	require.ErrorIs(t, err, ErrConflict)
}

func TestParseNoneCancelsArmedActivation(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{Secs: 1000})
	target := &fakeTarget{}
	a := New([]Target{target}, c)

	_, _, err := a.Parse(ActivationRequest{Mode: ModeScheduledAbsolute, RequestedTime: "1005:0"})
	require.NoError(t, err)
	require.True(t, target.locked)

	status, rec, err := a.Parse(ActivationRequest{Mode: ModeNone})
	require.NoError(t, err)
	require.Equal(t, 200, status)
	require.Nil(t, rec.Mode)
	require.False(t, target.locked)

	c.Advance(10 * time.Second)
	require.Equal(t, 0, target.activated)
}

func TestParseRejectsInvalidMode(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{})
	a := New([]Target{&fakeTarget{}}, c)
	_, _, err := a.Parse(ActivationRequest{Mode: Mode("bogus")})
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestActivateAllSurfacesTargetFailure(t *testing.T) {
	c := clock.NewManualClock(clock.TAITime{})
	failing := errors.New("driver rejected")
	target := &fakeTarget{activateFn: func() error { return failing }}
	a := New([]Target{target}, c)

	_, _, err := a.Parse(ActivationRequest{Mode: ModeImmediate})
	require.ErrorIs(t, err, failing)
}
