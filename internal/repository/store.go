package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
)

// Store adapts the MySQL repositories to the booking.Store interface.
// WithRoomLock wraps the engine's check-then-act sequences in a
// transaction that holds an exclusive lock on the room row
// (SELECT ... FOR UPDATE), which serialises concurrent admissions and
// approvals per room without locking unrelated rooms.
type Store struct {
	db           *sql.DB
	rooms        *RoomRepo
	reservations *ReservationRepo
}

// NewStore builds a Store from the shared repositories.  All
// dependencies must be non-nil.
func NewStore(db *sql.DB, rooms *RoomRepo, reservations *ReservationRepo) *Store {
	if db == nil || rooms == nil || reservations == nil {
		panic("nil dependency passed to NewStore")
	}
	return &Store{db: db, rooms: rooms, reservations: reservations}
}

// Room implements booking.Store.
func (s *Store) Room(ctx context.Context, id uint64) (model.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, booking.ErrRoomNotFound
	}
	return room, err
}

// SetRoomAvailable implements booking.Store.
func (s *Store) SetRoomAvailable(ctx context.Context, id uint64, available bool) error {
	return s.rooms.UpdateAvailability(ctx, id, available)
}

// Reservation implements booking.Store.
func (s *Store) Reservation(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return res, err
}

// CountConfirmed implements booking.Store.
func (s *Store) CountConfirmed(ctx context.Context, roomID uint64) (int, error) {
	return s.reservations.CountConfirmed(ctx, roomID)
}

// ListOverlapping implements booking.Store.
func (s *Store) ListOverlapping(ctx context.Context, roomID uint64, from, to time.Time, statuses []string) ([]model.Reservation, error) {
	return s.reservations.ListOverlapping(ctx, roomID, from, to, statuses)
}

// WithRoomLock implements booking.Store.  The room-row lock is taken
// by the capacity read; it is released on commit or rollback.
func (s *Store) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx booking.Tx, capacity uint32) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	capacity, err := s.rooms.CapacityForUpdateTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrRoomNotFound
		}
		return err
	}
	if err := fn(&storeTx{ctx: ctx, tx: tx, store: s}, capacity); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// storeTx exposes the transactional slice of the reservation
// repository as a booking.Tx.
type storeTx struct {
	ctx   context.Context
	tx    *sql.Tx
	store *Store
}

func (t *storeTx) CountOverlapping(roomID uint64, w booking.TimeWindow, statuses []string) (int, error) {
	return t.store.reservations.CountOverlappingTx(t.ctx, t.tx, roomID, w.Start, w.End, statuses)
}

func (t *storeTx) Reservation(id uint64) (model.Reservation, error) {
	res, err := t.store.reservations.GetTx(t.ctx, t.tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return res, err
}

func (t *storeTx) InsertReservation(res *model.Reservation) error {
	return t.store.reservations.CreateTx(t.ctx, t.tx, res)
}

func (t *storeTx) UpdateStatus(id uint64, status string) error {
	return t.store.reservations.UpdateStatusTx(t.ctx, t.tx, id, status)
}
