package booking

// Reservation lifecycle states as stored in reservations.status.
// CANCELLED is terminal; CONFIRMED may still move to CANCELLED via
// cancel-before-start.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// ValidStatus reports whether s is a known reservation status.  Used
// by handlers to validate the optional status filter on listings.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}
