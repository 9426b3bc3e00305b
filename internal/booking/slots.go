package booking

import (
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Business hours partitioned by the availability grid.  The grid
// covers [08:00, 20:00) in fixed 30-minute slots.
const (
	businessOpenHour  = 8
	businessCloseHour = 20
	slotLength        = 30 * time.Minute
)

// Slot is one fixed-size sub-interval of business hours.  Start and
// End are HH:MM strings; Available is true while the number of
// confirmed overlapping reservations stays below the room capacity.
type Slot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// DayGrid is the availability projection for one room and one day.
type DayGrid struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// buildDayGrid partitions business hours of day into slots and tags
// each one available when fewer than capacity confirmed reservations
// overlap it.  Untimed reservations never count.  The computation is
// pure: same inputs, same grid.
func buildDayGrid(day time.Time, capacity uint32, reservations []model.Reservation) DayGrid {
	day = day.UTC().Truncate(24 * time.Hour)
	open := day.Add(businessOpenHour * time.Hour)
	close := day.Add(businessCloseHour * time.Hour)

	grid := DayGrid{
		Date:  day.Format(dateLayout),
		Slots: make([]Slot, 0, int(close.Sub(open)/slotLength)),
	}
	for t := open; t.Before(close); t = t.Add(slotLength) {
		slot := TimeWindow{Start: t, End: t.Add(slotLength)}
		overlaps := 0
		for _, res := range reservations {
			if w, ok := windowOf(res); ok && w.Overlaps(slot) {
				overlaps++
			}
		}
		grid.Slots = append(grid.Slots, Slot{
			Start:     slot.Start.Format(timeLayout),
			End:       slot.End.Format(timeLayout),
			Available: overlaps < int(capacity),
		})
	}
	return grid
}
