package booking

import (
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Wire formats accepted for the reservation window.  Dates and
// time-of-day values arrive as separate fields and are combined into
// UTC date-times, matching how they are stored in the database.
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// TimeWindow is a half-open interval [Start, End) claimed by a
// reservation.  Both bounds are UTC.  A valid window always satisfies
// End.After(Start).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow combines a date and two time-of-day values into a
// validated window.  It returns ErrInvalidTimeWindow when any value
// fails to parse or when the end does not come strictly after the
// start.
func NewTimeWindow(date, startTime, endTime string) (TimeWindow, error) {
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return TimeWindow{}, ErrInvalidTimeWindow
	}
	st, err := time.Parse(timeLayout, startTime)
	if err != nil {
		return TimeWindow{}, ErrInvalidTimeWindow
	}
	et, err := time.Parse(timeLayout, endTime)
	if err != nil {
		return TimeWindow{}, ErrInvalidTimeWindow
	}
	w := TimeWindow{
		Start: d.Add(time.Duration(st.Hour())*time.Hour + time.Duration(st.Minute())*time.Minute),
		End:   d.Add(time.Duration(et.Hour())*time.Hour + time.Duration(et.Minute())*time.Minute),
	}
	if !w.End.After(w.Start) {
		return TimeWindow{}, ErrInvalidTimeWindow
	}
	return w, nil
}

// Overlaps reports whether two half-open windows intersect.  The
// comparison is strict on both bounds, so touching endpoints such as
// [9:00,10:00) and [10:00,11:00) do not overlap.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// Contains reports whether instant t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// windowOf extracts the window from a reservation.  It returns false
// for legacy untimed rows, which carry no window and are excluded
// from all overlap accounting.
func windowOf(res model.Reservation) (TimeWindow, bool) {
	if res.StartAt == nil || res.EndAt == nil {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: *res.StartAt, End: *res.EndAt}, true
}
