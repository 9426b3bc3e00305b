package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  The
// overlap-counting queries implement the strict half-open interval
// predicate (existing.start < window.end AND existing.end >
// window.start); untimed rows with NULL start/end never match.  The
// ...Tx variants run inside a caller-owned transaction so that
// admission control can pair them with the room-row lock.  All
// timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, room_id, client, start_at, end_at, status, created_at, updated_at`

func scanReservation(row interface{ Scan(dest ...any) error }) (model.Reservation, error) {
	var (
		res     model.Reservation
		startAt sql.NullTime
		endAt   sql.NullTime
	)
	err := row.Scan(&res.ID, &res.RoomID, &res.Client, &startAt, &endAt, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if startAt.Valid {
		st := startAt.Time.UTC()
		res.StartAt = &st
	}
	if endAt.Valid {
		et := endAt.Time.UTC()
		res.EndAt = &et
	}
	return res, nil
}

// statusPlaceholders builds an IN (...) clause fragment and its
// arguments for a status set.
func statusPlaceholders(statuses []string) (string, []any) {
	marks := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		marks[i] = "?"
		args[i] = s
	}
	return strings.Join(marks, ","), args
}

// GetByID returns a reservation by id.  sql.ErrNoRows is returned
// when it does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// GetTx is GetByID inside an existing transaction.
func (r *ReservationRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated id and timestamps on the
// provided record.  The caller must commit or rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (room_id, client, start_at, end_at, status) VALUES (?, ?, ?, ?, ?)`,
		res.RoomID, res.Client, res.StartAt, res.EndAt, res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	created, err := r.GetTx(ctx, tx, res.ID)
	if err != nil {
		return err
	}
	*res = created
	return nil
}

// UpdateStatusTx moves a reservation to the given status within an
// existing transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	return err
}

// CountOverlappingTx counts reservations of a room whose status is in
// statuses and whose window strictly intersects [start, end).  It
// must run in the same transaction as the room-row lock so the count
// stays valid until the guarded write commits.
func (r *ReservationRepo) CountOverlappingTx(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time, statuses []string) (int, error) {
	marks, args := statusPlaceholders(statuses)
	q := `SELECT COUNT(*) FROM reservations
	      WHERE room_id = ? AND status IN (` + marks + `)
	        AND start_at IS NOT NULL AND end_at IS NOT NULL
	        AND start_at < ? AND end_at > ?`
	all := append([]any{roomID}, args...)
	all = append(all, end, start)
	var n int
	if err := tx.QueryRowContext(ctx, q, all...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListOverlapping returns reservations of a room intersecting
// [from, to) with a status in statuses, ordered by window start.
// Used by the slot grid, which tolerates a plain read.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, roomID uint64, from, to time.Time, statuses []string) ([]model.Reservation, error) {
	marks, args := statusPlaceholders(statuses)
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE room_id = ? AND status IN (` + marks + `)
	        AND start_at IS NOT NULL AND end_at IS NOT NULL
	        AND start_at < ? AND end_at > ?
	      ORDER BY start_at`
	all := append([]any{roomID}, args...)
	all = append(all, to, from)
	rows, err := r.db.QueryContext(ctx, q, all...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountConfirmed counts all CONFIRMED reservations of a room with no
// window restriction.  Input for the coarse availability flag.
func (r *ReservationRepo) CountConfirmed(ctx context.Context, roomID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE room_id = ? AND status = ?`,
		roomID, "CONFIRMED").Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// List returns reservations filtered by optional client (exact,
// case-insensitive) and status, newest first.  Pure query with no
// engine logic.
func (r *ReservationRepo) List(ctx context.Context, client, status string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	conds := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if client != "" {
		conds = append(conds, "LOWER(client) = LOWER(?)")
		args = append(args, client)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, strings.ToUpper(status))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
