package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)

// Restaurant is the aggregate root owning tables and, through them, the
// reservation slots. Table numbers come from a restaurant-scoped counter so
// they stay deterministic and unique within the aggregate.
type Restaurant struct {
	ID       string
	Name     string
	Address  string
	Phone    string
	Email    string
	Capacity int
	Active   bool
	Hours    OperatingHours

	// Version supports optimistic concurrency at the persistence boundary:
	// the repository rejects a save whose version lags the stored row.
	Version int64

	tables          []*Table
	nextTableNumber int
}

// NewRestaurant validates and builds an active restaurant with no tables.
func NewRestaurant(name, address, phone, email string, capacity int, hours OperatingHours) (*Restaurant, error) {
	if strings.TrimSpace(name) == "" {
		return nil, newValidationError("name", "name must not be blank")
	}
	if strings.TrimSpace(address) == "" {
		return nil, newValidationError("address", "address must not be blank")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, newValidationError("email", "email format is invalid")
	}
	if capacity < 0 {
		return nil, newValidationError("capacity", "capacity must not be negative")
	}
	if !hours.Close.After(hours.Open) {
		return nil, newValidationError("hours", "closing time must be after opening time")
	}
	return &Restaurant{
		ID:              uuid.NewString(),
		Name:            name,
		Address:         address,
		Phone:           phone,
		Email:           email,
		Capacity:        capacity,
		Active:          true,
		Hours:           hours,
		nextTableNumber: 1,
	}, nil
}

// Activate flips the restaurant live.
func (r *Restaurant) Activate() {
	r.Active = true
}

// Deactivate takes the restaurant off the floor. Existing reservations are
// untouched; new ones are rejected by constraint validation.
func (r *Restaurant) Deactivate() {
	r.Active = false
}

// Tables returns the owned tables in insertion order. Read-only view: callers
// must not mutate the returned slice or its elements.
func (r *Restaurant) Tables() []*Table {
	return r.tables
}

// AddTable attaches a table, assigns its number from the restaurant-scoped
// counter and wires the back-reference plus hours snapshot.
func (r *Restaurant) AddTable(t *Table) error {
	if t == nil {
		return newValidationError("table", "table is required")
	}
	for _, existing := range r.tables {
		if existing.ID == t.ID {
			return nil
		}
	}
	if r.nextTableNumber == 0 {
		r.nextTableNumber = 1
	}
	t.attach(r.ID, r.nextTableNumber, r.Hours)
	r.nextTableNumber++
	r.tables = append(r.tables, t)
	return nil
}

// RemoveTable detaches the table and clears its back-reference. No-op when
// the table is not owned by this restaurant.
func (r *Restaurant) RemoveTable(tableID string) {
	for i, t := range r.tables {
		if t.ID == tableID {
			t.detach()
			r.tables = append(r.tables[:i], r.tables[i+1:]...)
			return
		}
	}
}

// TableByID returns the owned table with the given id, or nil.
func (r *Restaurant) TableByID(id string) *Table {
	for _, t := range r.tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TableByNumber returns the owned table with the given number, or nil.
func (r *Restaurant) TableByNumber(number int) *Table {
	for _, t := range r.tables {
		if t.Number == number {
			return t
		}
	}
	return nil
}

// SlotByID searches every owned table for the slot with the given id.
func (r *Restaurant) SlotByID(id string) (*Table, *ReservationSlot) {
	for _, t := range r.tables {
		if s := t.SlotByID(id); s != nil {
			return t, s
		}
	}
	return nil, nil
}

// TotalSeats sums the seats across all owned tables.
func (r *Restaurant) TotalSeats() int {
	total := 0
	for _, t := range r.tables {
		total += t.Seats
	}
	return total
}

// RehydrateRestaurant rebuilds an aggregate from persisted state, bypassing
// construction validation. Repository use only.
func RehydrateRestaurant(
	id, name, address, phone, email string,
	capacity int,
	active bool,
	hours OperatingHours,
	version int64,
	nextTableNumber int,
	tables []*Table,
) *Restaurant {
	r := &Restaurant{
		ID:              id,
		Name:            name,
		Address:         address,
		Phone:           phone,
		Email:           email,
		Capacity:        capacity,
		Active:          active,
		Hours:           hours,
		Version:         version,
		nextTableNumber: nextTableNumber,
	}
	for _, t := range tables {
		t.RestaurantID = id
		h := hours
		t.hours = &h
		r.tables = append(r.tables, t)
	}
	return r
}

// RehydrateTable rebuilds a table from persisted state. Repository use only.
func RehydrateTable(id string, number, seats int, location TableLocation, available bool, slots []*ReservationSlot) *Table {
	t := &Table{
		ID:        id,
		Number:    number,
		Seats:     seats,
		Location:  location,
		Available: available,
	}
	for _, s := range slots {
		s.TableID = id
	}
	t.restoreSlots(slots)
	return t
}

// NextTableNumber exposes the counter for persistence.
func (r *Restaurant) NextTableNumber() int {
	return r.nextTableNumber
}

// NewID mints an aggregate/entity identifier.
func NewID() string {
	return uuid.NewString()
}
