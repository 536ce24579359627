package domain

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// MinTableSeats is the smallest table the floor carries.
	MinTableSeats = 1
	// MaxTableSeats is the largest table the floor carries.
	MaxTableSeats = 8
)

// OperatingHours bounds the reservation windows a restaurant accepts.
type OperatingHours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// Table is a seating resource owned by a restaurant. It owns its reservation
// slots; the restaurant back-reference is carried as an id, not a pointer.
type Table struct {
	ID           string
	Number       int
	Seats        int
	Location     TableLocation
	Available    bool
	RestaurantID string

	// hours is a snapshot of the owning restaurant's operating hours, set
	// when the table is attached. Nil for a detached table, which skips the
	// hours check on AddSlot.
	hours *OperatingHours

	slots []*ReservationSlot
}

// NewTable validates and builds an available table. The table number is
// assigned by the owning restaurant when the table is attached.
func NewTable(seats int, location TableLocation) (*Table, error) {
	if seats < MinTableSeats || seats > MaxTableSeats {
		return nil, newValidationError("seats", fmt.Sprintf("seats must be between %d and %d", MinTableSeats, MaxTableSeats))
	}
	if !location.IsValid() {
		return nil, newValidationError("location", fmt.Sprintf("unknown table location %q", string(location)))
	}
	return &Table{
		ID:        uuid.NewString(),
		Seats:     seats,
		Location:  location,
		Available: true,
	}, nil
}

// Slots returns the table's slot collection. Read-only view: callers must not
// mutate the returned slice or its elements.
func (t *Table) Slots() []*ReservationSlot {
	return t.slots
}

// IsAvailableAt reports whether the table can take a booking over the given
// range. An unavailable table never can; otherwise only AVAILABLE and
// CONFIRMED slots block, CANCELLED and COMPLETED do not.
func (t *Table) IsAvailableAt(date Date, start, end TimeOfDay) bool {
	if !t.Available {
		return false
	}
	for _, s := range t.slots {
		if !s.Status.IsActive() {
			continue
		}
		if s.OverlapsRange(date, start, end) {
			return false
		}
	}
	return true
}

// AddSlot attaches a slot after enforcing capacity, overlap and operating
// hours. The overlap guard here skips only CANCELLED slots, so a COMPLETED
// slot still blocks a write at the same range even though IsAvailableAt no
// longer counts it; both sides of that rule are load-bearing for callers.
// Re-adding a slot already present is a no-op.
func (t *Table) AddSlot(slot *ReservationSlot) error {
	for _, existing := range t.slots {
		if existing == slot || existing.Equals(slot) {
			return nil
		}
	}
	if slot.PartySize > t.Seats {
		return &CapacityError{
			Requested: slot.PartySize,
			Capacity:  t.Seats,
			Reason:    "reserved seats cannot exceed table capacity",
		}
	}
	for _, existing := range t.slots {
		if existing.Status == StatusCancelled {
			continue
		}
		if existing.Overlaps(slot) {
			return &OverlapError{Reason: "time slot overlaps with existing reservation"}
		}
	}
	if t.hours != nil {
		if slot.Start.Before(t.hours.Open) || slot.End.After(t.hours.Close) {
			return &OverlapError{Reason: fmt.Sprintf(
				"time slot %s-%s is outside operating hours %s-%s",
				slot.Start, slot.End, t.hours.Open, t.hours.Close,
			)}
		}
	}
	slot.TableID = t.ID
	t.slots = append(t.slots, slot)
	return nil
}

// RemoveSlot detaches the slot and clears its back-reference. No-op when the
// slot is not present.
func (t *Table) RemoveSlot(slot *ReservationSlot) {
	for i, existing := range t.slots {
		if existing == slot || existing.Equals(slot) {
			existing.TableID = ""
			t.slots = append(t.slots[:i], t.slots[i+1:]...)
			return
		}
	}
}

// SlotByID returns the slot with the given id, or nil.
func (t *Table) SlotByID(id string) *ReservationSlot {
	for _, s := range t.slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// MakeAvailable flips the availability flag on. Existing slots are untouched.
func (t *Table) MakeAvailable() {
	t.Available = true
}

// MakeUnavailable flips the availability flag off. Existing slots are
// untouched.
func (t *Table) MakeUnavailable() {
	t.Available = false
}

// attach wires the restaurant back-reference and hours snapshot. Called by
// Restaurant.AddTable.
func (t *Table) attach(restaurantID string, number int, hours OperatingHours) {
	t.RestaurantID = restaurantID
	t.Number = number
	h := hours
	t.hours = &h
}

// detach clears the back-reference. Called by Restaurant.RemoveTable.
func (t *Table) detach() {
	t.RestaurantID = ""
	t.hours = nil
}

// restoreSlots installs a hydrated slot collection. Repository use only.
func (t *Table) restoreSlots(slots []*ReservationSlot) {
	t.slots = slots
}
