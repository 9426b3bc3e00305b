package model

import "time"

// Room represents a bookable coworking room as stored in the `rooms`
// table.  Capacity is the maximum number of simultaneously confirmed
// reservations the room tolerates; Available is a derived flag that is
// recomputed from confirmed reservations and must never be authored
// directly while reservations exist.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the room.
//  Location  – optional city or site label.
//  Capacity  – positive capacity used by admission control.
//  Available – derived "any free capacity at all" flag.
//  ImageURL  – optional picture shown in listings.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    // rooms.id
	Name      string    // rooms.name
	Location  *string   // rooms.location (nullable)
	Capacity  uint32    // rooms.capacity
	Available bool      // rooms.available
	ImageURL  *string   // rooms.image_url (nullable)
	CreatedAt time.Time // rooms.created_at
	UpdatedAt time.Time // rooms.updated_at
}
