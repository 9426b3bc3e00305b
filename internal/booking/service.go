package booking

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// confirmedOnly is the status set used for every capacity decision.
// Other status sets exist only for diagnostic queries.
var confirmedOnly = []string{StatusConfirmed}

// Service drives admission control and the reservation status state
// machine.  Capacity checks and the writes they guard always run
// under the store's per-room lock so that two concurrent requests can
// never both observe free capacity and both commit.  The availability
// flag recomputation is deliberately best-effort: a failure there is
// logged and never fails the primary transition.
type Service struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewService constructs the engine on top of a Store.  logger may be
// nil, in which case the standard logger is used.
func NewService(store Store, logger *log.Logger) *Service {
	if store == nil {
		panic("nil store passed to NewService")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create admits a new reservation request.  A request carrying a
// window is checked against the room's capacity and, when admitted,
// confirmed immediately; a request without a window cannot be checked
// for capacity and is created PENDING for an explicit approval step.
// Possible errors: ErrRoomNotFound, ErrCapacityExceeded.
func (s *Service) Create(ctx context.Context, roomID uint64, client string, w *TimeWindow) (model.Reservation, error) {
	res := model.Reservation{
		RoomID: roomID,
		Client: client,
		Status: StatusPending,
	}
	if w != nil {
		start, end := w.Start, w.End
		res.StartAt, res.EndAt = &start, &end
	}
	err := s.store.WithRoomLock(ctx, roomID, func(tx Tx, capacity uint32) error {
		if w != nil {
			n, err := tx.CountOverlapping(roomID, *w, confirmedOnly)
			if err != nil {
				return err
			}
			if n >= int(capacity) {
				return ErrCapacityExceeded
			}
			// Admission passed synchronously, so confirm right away
			// instead of requiring a redundant manual approval.
			res.Status = StatusConfirmed
		}
		return tx.InsertReservation(&res)
	})
	if err != nil {
		return model.Reservation{}, err
	}
	if res.Status == StatusConfirmed {
		s.recomputeAvailability(ctx, roomID)
	}
	return res, nil
}

// Approve moves a PENDING reservation to CONFIRMED.  The overlap
// check is re-run under the room lock because another reservation may
// have been confirmed since the request was created; any confirmed
// overlap fails with ErrSlotConflict and leaves the reservation
// PENDING.  Untimed reservations confirm without a capacity check.
func (s *Service) Approve(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.transition(ctx, id, func(tx Tx, cur model.Reservation) (string, error) {
		switch cur.Status {
		case StatusPending:
		case StatusConfirmed:
			return "", ErrInvalidTransition
		default:
			return "", ErrReservationNotFound
		}
		if w, ok := windowOf(cur); ok {
			n, err := tx.CountOverlapping(cur.RoomID, w, confirmedOnly)
			if err != nil {
				return "", err
			}
			if n > 0 {
				return "", ErrSlotConflict
			}
		}
		return StatusConfirmed, nil
	})
}

// Reject moves a reservation to CANCELLED.  It is primarily meant for
// PENDING reservations but also works as an admin override on
// CONFIRMED ones.
func (s *Service) Reject(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.transition(ctx, id, func(tx Tx, cur model.Reservation) (string, error) {
		if cur.Status == StatusCancelled {
			return "", ErrReservationNotFound
		}
		return StatusCancelled, nil
	})
}

// Cancel moves a PENDING or CONFIRMED reservation to CANCELLED.  A
// windowed reservation can only be cancelled strictly before its
// start; untimed reservations are always cancellable.
func (s *Service) Cancel(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.transition(ctx, id, func(tx Tx, cur model.Reservation) (string, error) {
		if cur.Status == StatusCancelled {
			return "", ErrReservationNotFound
		}
		if w, ok := windowOf(cur); ok {
			if !w.Start.After(s.now().UTC()) {
				return "", ErrAlreadyStarted
			}
		}
		return StatusCancelled, nil
	})
}

// transition runs one state-machine step: it re-reads the reservation
// under the room lock, asks decide for the target status, persists it
// and then recomputes the room's availability flag.
func (s *Service) transition(ctx context.Context, id uint64, decide func(tx Tx, cur model.Reservation) (string, error)) (model.Reservation, error) {
	res, err := s.store.Reservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	err = s.store.WithRoomLock(ctx, res.RoomID, func(tx Tx, capacity uint32) error {
		cur, err := tx.Reservation(id)
		if err != nil {
			return err
		}
		next, err := decide(tx, cur)
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(id, next); err != nil {
			return err
		}
		res = cur
		res.Status = next
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	s.recomputeAvailability(ctx, res.RoomID)
	return res, nil
}

// Availability produces the slot grid for a room and day.  It is a
// pure read projection: repeated calls with unchanged state return
// the same grid.  Fails with ErrRoomNotFound for unknown rooms and
// ErrInvalidTimeWindow for a malformed date.
func (s *Service) Availability(ctx context.Context, roomID uint64, date string) (DayGrid, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return DayGrid{}, ErrInvalidTimeWindow
	}
	room, err := s.store.Room(ctx, roomID)
	if err != nil {
		return DayGrid{}, err
	}
	reservations, err := s.store.ListOverlapping(ctx, roomID, day, day.Add(24*time.Hour), confirmedOnly)
	if err != nil {
		return DayGrid{}, err
	}
	return buildDayGrid(day, room.Capacity, reservations), nil
}

// recomputeAvailability projects the coarse whole-room availability
// flag: available while the total count of confirmed reservations,
// independent of date, stays below capacity.  The write is skipped
// when the value is unchanged.  Failures are logged and swallowed;
// the flag is a derived signal, not part of the capacity invariant.
func (s *Service) recomputeAvailability(ctx context.Context, roomID uint64) {
	room, err := s.store.Room(ctx, roomID)
	if err != nil {
		s.logger.Printf("booking: availability recompute: load room %d: %v", roomID, err)
		return
	}
	n, err := s.store.CountConfirmed(ctx, roomID)
	if err != nil {
		s.logger.Printf("booking: availability recompute: count room %d: %v", roomID, err)
		return
	}
	available := n < int(room.Capacity)
	if room.Available == available {
		return
	}
	if err := s.store.SetRoomAvailable(ctx, roomID, available); err != nil {
		s.logger.Printf("booking: availability recompute: update room %d: %v", roomID, err)
	}
}
