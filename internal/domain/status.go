package domain

import "strings"

// ReservationStatus represents the lifecycle state of a reservation slot.
type ReservationStatus string

const (
	StatusAvailable ReservationStatus = "AVAILABLE"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

type statusProperties struct {
	active        bool
	terminal      bool
	allowsConfirm bool
	allowsCancel  bool
}

var statusTable = map[ReservationStatus]statusProperties{
	StatusAvailable: {active: true, allowsConfirm: true},
	StatusConfirmed: {active: true, allowsCancel: true},
	StatusCancelled: {terminal: true},
	StatusCompleted: {terminal: true},
}

// IsValid reports whether s is one of the closed set of statuses.
func (s ReservationStatus) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// IsActive reports whether the status counts toward the live-booking set used
// in overlap and utilization math.
func (s ReservationStatus) IsActive() bool {
	return statusTable[s].active
}

// IsTerminal reports whether no further transition is legal from s.
func (s ReservationStatus) IsTerminal() bool {
	return statusTable[s].terminal
}

// AllowsConfirmation reports whether a slot in this status may be confirmed.
func (s ReservationStatus) AllowsConfirmation() bool {
	return statusTable[s].allowsConfirm
}

// AllowsCancellation reports whether a slot in this status may be cancelled.
func (s ReservationStatus) AllowsCancellation() bool {
	return statusTable[s].allowsCancel
}

// NormalizeStatus returns the canonical ReservationStatus for raw input, or
// the empty status when the value is not part of the closed set.
func NormalizeStatus(raw string) (ReservationStatus, bool) {
	s := ReservationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s, true
	}
	return "", false
}
