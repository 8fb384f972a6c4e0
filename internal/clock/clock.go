// Package clock provides the monotonic/TAI-aware time source used by the
// activation scheduler. It mirrors the connection among "now", a target
// instant, and the signed offset between them that the original Python
// implementation computed with nmoscommon's Timestamp/TimeOffset types.
package clock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TAITime is a TAI instant expressed as whole seconds plus a nanosecond
// remainder, matching the wire format "<seconds>:<nanoseconds>".
type TAITime struct {
	Secs  int64
	Nanos int64
}

// String renders the canonical "secs:nanos" wire form.
func (t TAITime) String() string {
	return fmt.Sprintf("%d:%d", t.Secs, t.Nanos)
}

// Add returns t shifted by d.
func (t TAITime) Add(d time.Duration) TAITime {
	total := t.Secs*int64(time.Second) + t.Nanos + int64(d)
	secs := total / int64(time.Second)
	nanos := total % int64(time.Second)
	if nanos < 0 {
		nanos += int64(time.Second)
		secs--
	}
	return TAITime{Secs: secs, Nanos: nanos}
}

// Sub returns the signed duration from-to: to.Sub(from) is positive when
// to is later than from.
func (to TAITime) Sub(from TAITime) time.Duration {
	return time.Duration((to.Secs-from.Secs)*int64(time.Second) + (to.Nanos - from.Nanos))
}

// ParseTAITime parses the strict "<int>:<int>" wire form used for
// requested_time and activation_time. Any other shape is a validation
// error tagged to the field name supplied by the caller.
func ParseTAITime(s, field string) (TAITime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TAITime{}, &FieldError{Field: field, Reason: "expected \"seconds:nanoseconds\""}
	}
	secs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return TAITime{}, &FieldError{Field: field, Reason: "invalid seconds component"}
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return TAITime{}, &FieldError{Field: field, Reason: "invalid nanoseconds component"}
	}
	return TAITime{Secs: secs, Nanos: nanos}, nil
}

// FieldError tags a validation failure to the offending request field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Handle identifies a scheduled callback so it can be cancelled. The zero
// Handle is valid and cancels nothing, matching an idle Activator that
// has never armed a timer.
type Handle struct {
	timer  *time.Timer
	manual *ManualClock
	id     int
}

// Clock is the minimal time source the activator depends on. It is an
// interface so tests can substitute a ManualClock instead of sleeping out
// real scheduled-activation windows.
type Clock interface {
	Now() TAITime
	Offset(from, to TAITime) time.Duration
	After(d time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// SystemClock is the production Clock. It derives TAI from the host wall
// clock plus a configurable, fixed leap-second offset. Real TAI (e.g. from
// a PTP grandmaster) is a deployment concern; hosts without it should
// expect scheduled-absolute activations to carry up to ±1s of drift, as
// called out in the design notes.
type SystemClock struct {
	LeapSeconds int64
}

// NewSystemClock returns a SystemClock with the given leap-second offset
// applied when translating time.Now() to TAI.
func NewSystemClock(leapSeconds int64) *SystemClock {
	return &SystemClock{LeapSeconds: leapSeconds}
}

func (c *SystemClock) Now() TAITime {
	now := time.Now()
	return TAITime{Secs: now.Unix() + c.LeapSeconds, Nanos: int64(now.Nanosecond())}
}

func (c *SystemClock) Offset(from, to TAITime) time.Duration {
	return to.Sub(from)
}

func (c *SystemClock) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	return Handle{timer: time.AfterFunc(d, fn)}
}

func (c *SystemClock) Cancel(h Handle) {
	if h.timer == nil {
		return
	}
	if !h.timer.Stop() {
		log.Debug().Msg("clock: timer already fired or was never armed during cancel")
	}
}

// ManualClock is a deterministic Clock for tests: Now() is set explicitly
// and After() schedules run only when Advance() crosses their due time.
type ManualClock struct {
	mu      sync.Mutex
	now     TAITime
	pending map[int]*manualTimer
	nextID  int
}

type manualTimer struct {
	due   TAITime
	fn    func()
	fired bool
}

// NewManualClock creates a ManualClock starting at the given instant.
func NewManualClock(start TAITime) *ManualClock {
	return &ManualClock{now: start, pending: make(map[int]*manualTimer)}
}

func (c *ManualClock) Now() TAITime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Offset(from, to TAITime) time.Duration {
	return to.Sub(from)
}

func (c *ManualClock) After(d time.Duration, fn func()) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.pending[id] = &manualTimer{due: c.now.Add(d), fn: fn}
	return Handle{id: id, manual: c}
}

// Cancel marks a pending manual timer as fired without invoking it.
func (c *ManualClock) Cancel(h Handle) {
	if h.manual != c {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.pending[h.id]; ok {
		t.fired = true
	}
}

// Advance moves the clock forward by d, firing any callbacks whose due
// time has now passed, in the order they were scheduled.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := c.now
	var ids []int
	for id, t := range c.pending {
		if !t.fired && t.due.Sub(due) <= 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	var toFire []*manualTimer
	for _, id := range ids {
		t := c.pending[id]
		t.fired = true
		toFire = append(toFire, t)
	}
	c.mu.Unlock()
	for _, t := range toFire {
		t.fn()
	}
}
