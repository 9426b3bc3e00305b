package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo provides CRUD operations for rooms.  The booking engine
// only ever reads a room's capacity and writes its derived
// availability flag; the remaining fields exist for listings and
// administration.  All timestamp fields are stored in UTC.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle for starting transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, name, location, capacity, available, image_url, created_at, updated_at`

func scanRoom(row interface{ Scan(dest ...any) error }) (model.Room, error) {
	var (
		room     model.Room
		location sql.NullString
		imageURL sql.NullString
	)
	err := row.Scan(&room.ID, &room.Name, &location, &room.Capacity, &room.Available, &imageURL, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return model.Room{}, err
	}
	if location.Valid {
		loc := location.String
		room.Location = &loc
	}
	if imageURL.Valid {
		img := imageURL.String
		room.ImageURL = &img
	}
	return room, nil
}

// List returns all rooms ordered by id.  When no rooms exist an empty
// slice is returned.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetByID returns a single room.  sql.ErrNoRows is returned when the
// room does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// Create inserts a new room and returns it with the generated id and
// timestamps populated.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (name, location, capacity, available, image_url) VALUES (?, ?, ?, ?, ?)`,
		room.Name, room.Location, room.Capacity, room.Available, room.ImageURL)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	created, err := r.GetByID(ctx, room.ID)
	if err != nil {
		return err
	}
	*room = created
	return nil
}

// Update rewrites the administrative fields of a room.  The derived
// availability flag is intentionally not touched here; it belongs to
// the booking engine.  sql.ErrNoRows is returned for unknown rooms.
func (r *RoomRepo) Update(ctx context.Context, room model.Room) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, location = ?, capacity = ?, image_url = ? WHERE id = ?`,
		room.Name, room.Location, room.Capacity, room.ImageURL, room.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, room.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a room.  Reservations referencing it are removed by
// the FK cascade.  sql.ErrNoRows is returned for unknown rooms.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAvailability writes the derived availability flag.
func (r *RoomRepo) UpdateAvailability(ctx context.Context, id uint64, available bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rooms SET available = ? WHERE id = ?`, available, id)
	return err
}

// CapacityForUpdateTx reads a room's capacity while taking an
// exclusive lock on its row.  Every check-then-act sequence on the
// same room serialises behind this lock until the surrounding
// transaction commits or rolls back.  sql.ErrNoRows is returned when
// the room does not exist.
func (r *RoomRepo) CapacityForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (uint32, error) {
	var capacity uint32
	err := tx.QueryRowContext(ctx, `SELECT capacity FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&capacity)
	if err != nil {
		return 0, err
	}
	return capacity, nil
}
