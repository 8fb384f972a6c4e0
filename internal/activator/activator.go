// Package activator implements the scheduled-activation state machine
// bound to one transceiver: parsing activation PATCH bodies, arming and
// cancelling a single pending timer, and firing the target chain that
// commits staged parameters into active.
package activator

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nmos-cm/connection-core/internal/clock"
)

// Target is anything an Activator can arm and fire: TransceiverState and
// transportfile.Manager both satisfy it.
type Target interface {
	Lock()
	Unlock()
	Activate() error
}

// phase is the Activator's explicit state, matching the Idle → Armed →
// Firing → Idle model the design notes call for in place of the
// original's single boolean `scheduled` flag.
type phase int

const (
	phaseIdle phase = iota
	phaseArmed
	phaseFiring
)

// Activator schedules and fires activations for one transceiver's chain
// of targets. For a receiver the chain is
// [TransportFileManager, TransceiverState] so SDP-derived values commit
// before the receiver's active parameters are exposed.
type Activator struct {
	mu sync.Mutex

	targets []Target
	clock   clock.Clock

	state  phase
	handle clock.Handle

	last   Record
	active Record

	log zerolog.Logger
}

// New constructs an Activator bound to targets, fired in list order.
func New(targets []Target, c clock.Clock) *Activator {
	return &Activator{
		targets: targets,
		clock:   c,
		last:    emptyRecord(),
		active:  emptyRecord(),
		log:     log.Logger.With().Str("component", "activator").Logger(),
	}
}

// GetLastRequest returns the pending (armed or just-completed-but-not-
// yet-moved) activation record.
func (a *Activator) GetLastRequest() Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// GetActiveRequest returns the record of the most recently completed
// activation.
func (a *Activator) GetActiveRequest() Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// ActivationRequest is the parsed shape of an activation PATCH body.
type ActivationRequest struct {
	Mode          Mode
	RequestedTime string
}

// Parse dispatches obj by mode and returns the HTTP status to report
// alongside the resulting last-request record.
func (a *Activator) Parse(req ActivationRequest) (int, Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch req.Mode {
	case ModeImmediate:
		return a.scheduleImmediateLocked()
	case ModeScheduledAbsolute:
		return a.scheduleAbsoluteLocked(req.RequestedTime)
	case ModeScheduledRelative:
		return a.scheduleRelativeLocked(req.RequestedTime)
	case ModeNone:
		return a.scheduleNoneLocked()
	default:
		return 0, Record{}, ErrInvalidMode
	}
}

func (a *Activator) scheduleImmediateLocked() (int, Record, error) {
	if a.state != phaseIdle {
		return 0, Record{}, ErrConflict
	}
	if err := a.activateAllLocked(); err != nil {
		return 0, Record{}, err
	}
	now := a.clock.Now()
	a.last = Record{
		Mode:           modePtr(ModeImmediate),
		RequestedTime:  nil,
		ActivationTime: strPtr(now.String()),
	}
	a.moveToActiveLocked()
	return 200, a.active, nil
}

func (a *Activator) scheduleAbsoluteLocked(timeString string) (int, Record, error) {
	if a.state != phaseIdle {
		return 0, Record{}, ErrConflict
	}
	target, err := clock.ParseTAITime(timeString, "requested_time")
	if err != nil {
		return 0, Record{}, ErrInvalidTimeString
	}
	now := a.clock.Now()
	offset := a.clock.Offset(now, target)
	if offset < 0 {
		offset = 0
	}
	a.armLocked(offset)
	actual := now.Add(offset)
	a.last = Record{
		Mode:           modePtr(ModeScheduledAbsolute),
		RequestedTime:  strPtr(timeString),
		ActivationTime: strPtr(actual.String()),
	}
	return 202, a.last, nil
}

func (a *Activator) scheduleRelativeLocked(timeString string) (int, Record, error) {
	if a.state != phaseIdle {
		return 0, Record{}, ErrConflict
	}
	offsetTAI, err := clock.ParseTAITime(timeString, "requested_time")
	if err != nil {
		return 0, Record{}, ErrInvalidTimeString
	}
	offset := offsetTAI.Sub(clock.TAITime{})
	now := a.clock.Now()
	a.armLocked(offset)
	absTime := now.Add(offset)
	a.last = Record{
		Mode:           modePtr(ModeScheduledRelative),
		RequestedTime:  strPtr(timeString),
		ActivationTime: strPtr(absTime.String()),
	}
	return 202, a.last, nil
}

func (a *Activator) scheduleNoneLocked() (int, Record, error) {
	if a.state == phaseArmed {
		a.clock.Cancel(a.handle)
		for _, t := range a.targets {
			t.Unlock()
		}
		a.state = phaseIdle
	}
	a.last = emptyRecord()
	return 200, a.last, nil
}

// armLocked locks every target, marks the Activator armed, and
// registers a timer that fires the activation chain on expiry.
func (a *Activator) armLocked(offset time.Duration) {
	for _, t := range a.targets {
		t.Lock()
	}
	a.state = phaseArmed
	a.handle = a.clock.After(offset, a.fire)
}

// fire runs on the clock's own goroutine when an armed timer expires.
func (a *Activator) fire() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != phaseArmed {
		// A mode=null cancellation raced the timer; nothing to do.
		return
	}
	if err := a.activateAllLocked(); err != nil {
		a.log.Warn().Err(err).Msg("scheduled activation failed")
	}
	for _, t := range a.targets {
		t.Unlock()
	}
	a.moveToActiveLocked()
	a.state = phaseIdle
}

func (a *Activator) activateAllLocked() error {
	a.state = phaseFiring
	defer func() { a.state = phaseIdle }()
	for i, t := range a.targets {
		if err := t.Activate(); err != nil {
			return fmt.Errorf("activator: target %d failed to activate: %w", i, err)
		}
	}
	return nil
}

func (a *Activator) moveToActiveLocked() {
	a.active = a.last
	a.last = emptyRecord()
}
