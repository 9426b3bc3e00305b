// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Event types carried in ReservationEvent.Type.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published whenever a reservation reaches a final
// admission decision. It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	RoomID        uint64 `json:"room_id"`
	Client        string `json:"client"`
	StartsAt      string `json:"starts_at,omitempty"`
	EndsAt        string `json:"ends_at,omitempty"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent builds the broker payload for a reservation.
// Untimed reservations leave the window fields empty.
func NewReservationEvent(eventType string, res model.Reservation) ReservationEvent {
	ev := ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		Client:        res.Client,
		Status:        res.Status,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if res.StartAt != nil {
		ev.StartsAt = res.StartAt.UTC().Format(time.RFC3339)
	}
	if res.EndAt != nil {
		ev.EndsAt = res.EndAt.UTC().Format(time.RFC3339)
	}
	return ev
}
