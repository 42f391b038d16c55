package enums

// ReservationStatus is the tri-state of a stock hold. Rows are append-only:
// a reservation leaves RESERVED at most once and is never deleted.
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusCommitted, ReservationStatusReleased:
		return true
	default:
		return false
	}
}
