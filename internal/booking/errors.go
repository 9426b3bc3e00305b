// Package booking implements the admission-control and availability
// engine for room reservations: time window validation, overlap
// counting, the status state machine, the derived room availability
// flag and the per-day slot grid.  Persistence is abstracted behind
// the Store interface so the engine itself stays free of SQL.
package booking

import "errors"

// ErrInvalidTimeWindow is returned when a supplied date/time pair is
// malformed, incomplete or inverted.  Handlers should translate this
// into an HTTP 400 response.
var ErrInvalidTimeWindow = errors.New("invalid time window")

// ErrRoomNotFound is returned when the referenced room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// ErrReservationNotFound is returned when a reservation does not exist
// or is CANCELLED; cancelled reservations accept no further
// transitions and are treated as gone.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrCapacityExceeded is returned by admission control when the number
// of confirmed reservations overlapping the requested window has
// already reached the room's capacity.  Safe to retry with a
// different window.  Handlers translate this into HTTP 409.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrSlotConflict is returned when approving a pending reservation
// whose window now overlaps a reservation confirmed in the meantime.
var ErrSlotConflict = errors.New("slot conflict")

// ErrAlreadyStarted is returned when cancelling a reservation whose
// window has begun or elapsed.
var ErrAlreadyStarted = errors.New("reservation already started")

// ErrInvalidTransition is returned for transitions the state machine
// does not define, such as approving an already confirmed
// reservation.
var ErrInvalidTransition = errors.New("invalid status transition")
