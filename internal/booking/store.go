package booking

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Store is the persistence surface the engine depends on.  The MySQL
// implementation lives in internal/repository; tests use an in-memory
// fake.  Implementations translate their not-found conditions into
// ErrRoomNotFound / ErrReservationNotFound.
type Store interface {
	// Room returns the room row including capacity and the current
	// derived availability flag.
	Room(ctx context.Context, id uint64) (model.Room, error)

	// SetRoomAvailable updates the derived availability flag.
	SetRoomAvailable(ctx context.Context, id uint64, available bool) error

	// Reservation returns a reservation by id.
	Reservation(ctx context.Context, id uint64) (model.Reservation, error)

	// CountConfirmed counts CONFIRMED reservations of a room with no
	// time-window restriction.  Input for the availability projector.
	CountConfirmed(ctx context.Context, roomID uint64) (int, error)

	// ListOverlapping returns reservations of the room whose windows
	// intersect [from, to) under the strict half-open predicate and
	// whose status is in statuses.  Untimed rows never match.
	ListOverlapping(ctx context.Context, roomID uint64, from, to time.Time, statuses []string) ([]model.Reservation, error)

	// WithRoomLock runs fn inside a transaction holding an exclusive
	// lock on the room row, serialising check-then-act sequences for
	// that room against concurrent requests.  capacity is the locked
	// room's capacity.  The transaction commits when fn returns nil
	// and rolls back otherwise.
	WithRoomLock(ctx context.Context, roomID uint64, fn func(tx Tx, capacity uint32) error) error
}

// Tx is the slice of operations available while the room lock is
// held.  All reads observe, and all writes join, the surrounding
// transaction.
type Tx interface {
	// CountOverlapping counts reservations of the room whose windows
	// intersect w and whose status is in statuses.  Capacity
	// decisions always pass {CONFIRMED}.
	CountOverlapping(roomID uint64, w TimeWindow, statuses []string) (int, error)

	// Reservation returns a reservation by id for re-validation under
	// the lock.
	Reservation(id uint64) (model.Reservation, error)

	// InsertReservation persists a new reservation and fills in its
	// generated ID and timestamps.
	InsertReservation(res *model.Reservation) error

	// UpdateStatus moves a reservation to the given status.
	UpdateStatus(id uint64, status string) error
}
