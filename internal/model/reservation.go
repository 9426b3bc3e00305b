package model

import "time"

// Reservation records a client's booking of a room.  StartAt and EndAt
// describe a half-open window [StartAt, EndAt); both are nil for legacy
// untimed reservations, which never participate in overlap counting but
// still occupy a status.  Status is one of PENDING, CONFIRMED or
// CANCELLED (see the booking package for the transition rules).
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room being reserved (reference, not ownership).
//  Client    – opaque client identifier (usually an email).
//  StartAt   – window start, nil when untimed.
//  EndAt     – window end, nil when untimed.
//  Status    – reservation lifecycle state.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64     // reservations.id
	RoomID    uint64     // reservations.room_id
	Client    string     // reservations.client
	StartAt   *time.Time // reservations.start_at (nullable)
	EndAt     *time.Time // reservations.end_at (nullable)
	Status    string     // reservations.status
	CreatedAt time.Time  // reservations.created_at
	UpdatedAt time.Time  // reservations.updated_at
}
