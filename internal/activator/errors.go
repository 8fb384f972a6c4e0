package activator

import "errors"

// ErrConflict is returned by Parse when a scheduling request arrives
// while an activation is already armed. The original device silently
// overwrote the pending timer; this implementation requires an explicit
// mode=null cancellation first.
var ErrConflict = errors.New("activator: an activation is already scheduled; cancel it with mode=null first")

// ErrInvalidMode is returned for any mode value outside the four the
// API defines.
var ErrInvalidMode = errors.New("activator: unrecognized activation mode")

// ErrInvalidTimeString is returned when requested_time isn't a strict
// "<seconds>:<nanoseconds>" pair of integers.
var ErrInvalidTimeString = errors.New("activator: requested_time must be formatted \"<seconds>:<nanoseconds>\"")
