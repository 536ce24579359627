package domain

const (
	// MinSlotMinutes is the shortest admissible reservation window.
	MinSlotMinutes = 30
	// MaxSlotMinutes is the longest admissible reservation window.
	MaxSlotMinutes = 240
)

// ReservationSlot is a date + time-range + party-size booking record attached
// to one table. Construction-time invariants (date not in the past, duration
// bounds) are not re-checked later.
type ReservationSlot struct {
	ID        string
	TableID   string
	Date      Date
	Start     TimeOfDay
	End       TimeOfDay
	PartySize int
	Status    ReservationStatus

	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

// NewReservationSlot validates and builds a slot in the AVAILABLE state.
func NewReservationSlot(clock Clock, date Date, start, end TimeOfDay, partySize int) (*ReservationSlot, error) {
	if date.IsZero() {
		return nil, newValidationError("date", "date is required")
	}
	if date.Before(Today(clock)) {
		return nil, newValidationError("date", "date cannot be in the past")
	}
	if !end.After(start) {
		return nil, newValidationError("time range", "end time must be after start time")
	}
	if minutes := start.MinutesUntil(end); minutes < MinSlotMinutes || minutes > MaxSlotMinutes {
		return nil, newValidationError("duration", "duration must be between 30 minutes and 4 hours")
	}
	if partySize <= 0 {
		return nil, newValidationError("party size", "party size must be positive")
	}
	return &ReservationSlot{
		Date:      date,
		Start:     start,
		End:       end,
		PartySize: partySize,
		Status:    StatusAvailable,
	}, nil
}

// Confirm moves the slot AVAILABLE -> CONFIRMED.
func (s *ReservationSlot) Confirm() error {
	if !s.Status.AllowsConfirmation() {
		return &StateTransitionError{
			From:   s.Status,
			Action: "confirm",
			Reason: "cannot confirm a slot that is not available",
		}
	}
	s.Status = StatusConfirmed
	return nil
}

// Cancel moves the slot CONFIRMED -> CANCELLED.
func (s *ReservationSlot) Cancel() error {
	switch s.Status {
	case StatusConfirmed:
		s.Status = StatusCancelled
		return nil
	case StatusCompleted:
		return &StateTransitionError{From: s.Status, Action: "cancel", Reason: "cannot cancel a completed slot"}
	case StatusCancelled:
		return &StateTransitionError{From: s.Status, Action: "cancel", Reason: "cannot cancel a cancelled slot"}
	default:
		return &StateTransitionError{From: s.Status, Action: "cancel", Reason: "cannot cancel a slot that is not confirmed"}
	}
}

// Complete moves the slot CONFIRMED -> COMPLETED.
func (s *ReservationSlot) Complete() error {
	switch s.Status {
	case StatusCancelled:
		return &StateTransitionError{From: s.Status, Action: "complete", Reason: "cannot complete a cancelled slot"}
	case StatusAvailable:
		return &StateTransitionError{From: s.Status, Action: "complete", Reason: "cannot complete an unconfirmed slot"}
	default:
		s.Status = StatusCompleted
		return nil
	}
}

// Overlaps reports whether two slots collide: same date with intersecting
// half-open ranges. Symmetric; touching endpoints do not overlap.
func (s *ReservationSlot) Overlaps(other *ReservationSlot) bool {
	if s.Date != other.Date {
		return false
	}
	return RangesOverlap(s.Start, s.End, other.Start, other.End)
}

// OverlapsRange is Overlaps against a bare date + range.
func (s *ReservationSlot) OverlapsRange(date Date, start, end TimeOfDay) bool {
	return s.Date == date && RangesOverlap(s.Start, s.End, start, end)
}

// Equals compares by identity when both slots are persisted, otherwise by the
// (date, start, end) business key.
func (s *ReservationSlot) Equals(other *ReservationSlot) bool {
	if other == nil {
		return false
	}
	if s.ID != "" && other.ID != "" {
		return s.ID == other.ID
	}
	return s.Date == other.Date && s.Start == other.Start && s.End == other.End
}
