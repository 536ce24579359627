package domain

import "log/slog"

// AvailabilityEngine derives booking facts across a restaurant's table and
// slot graph. Every method is pure with respect to its inputs; the only
// side effect anywhere is the weather advisory log line.
type AvailabilityEngine struct {
	clock  Clock
	logger *slog.Logger
}

// NewAvailabilityEngine builds an engine on the given clock.
func NewAvailabilityEngine(clock Clock, logger *slog.Logger) *AvailabilityEngine {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityEngine{clock: clock, logger: logger}
}

// validateQuery is the shared input guard for the query functions.
func (e *AvailabilityEngine) validateQuery(r *Restaurant, partySize int, date Date, start, end TimeOfDay) error {
	if r == nil {
		return newValidationError("restaurant", "restaurant is required")
	}
	if partySize <= 0 {
		return newValidationError("party size", "party size must be positive")
	}
	if date.IsZero() {
		return newValidationError("date", "date is required")
	}
	if date.Before(Today(e.clock)) {
		return newValidationError("date", "date cannot be in the past")
	}
	if !end.After(start) {
		return newValidationError("time range", "end time must be after start time")
	}
	return nil
}

// FindAvailableTables returns every available table that seats the party and
// is free over the requested range, in the restaurant's insertion order.
func (e *AvailabilityEngine) FindAvailableTables(r *Restaurant, partySize int, date Date, start, end TimeOfDay) ([]*Table, error) {
	if err := e.validateQuery(r, partySize, date, start, end); err != nil {
		return nil, err
	}
	var out []*Table
	for _, t := range r.Tables() {
		if !t.Available || t.Seats < partySize {
			continue
		}
		if t.IsAvailableAt(date, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// FindBestTable selects the smallest table that still fits the party, leaving
// larger tables free for larger parties. Ties break to the first candidate in
// iteration order. Returns nil when no table fits.
func (e *AvailabilityEngine) FindBestTable(r *Restaurant, partySize int, date Date, start, end TimeOfDay) (*Table, error) {
	candidates, err := e.FindAvailableTables(r, partySize, date, start, end)
	if err != nil {
		return nil, err
	}
	var best *Table
	for _, t := range candidates {
		if best == nil || t.Seats < best.Seats {
			best = t
		}
	}
	return best, nil
}

// AvailabilityRate is the fraction of tables currently flagged available.
// The date parameter is accepted for interface stability but deliberately
// unused: the rate reflects the availability flag alone, not time-of-day
// bookings.
func (e *AvailabilityEngine) AvailabilityRate(r *Restaurant, date Date) float64 {
	if r == nil || len(r.Tables()) == 0 {
		return 0.0
	}
	available := 0
	for _, t := range r.Tables() {
		if t.Available {
			available++
		}
	}
	return float64(available) / float64(len(r.Tables()))
}

// UtilizationRate is the fraction of seat capacity across available tables
// occupied by active bookings at the given instant. AVAILABLE and CONFIRMED
// slots both count as occupying.
func (e *AvailabilityEngine) UtilizationRate(r *Restaurant, date Date, at TimeOfDay) float64 {
	if r == nil {
		return 0.0
	}
	totalSeats := 0
	occupiedSeats := 0
	for _, t := range r.Tables() {
		if !t.Available {
			continue
		}
		totalSeats += t.Seats
		for _, s := range t.Slots() {
			if !s.Status.IsActive() {
				continue
			}
			if s.Date == date && RangeContains(s.Start, s.End, at) {
				occupiedSeats += s.PartySize
			}
		}
	}
	if totalSeats == 0 {
		return 0.0
	}
	rate := float64(occupiedSeats) / float64(totalSeats)
	if rate > 1.0 {
		rate = 1.0
	}
	return rate
}

// CanAccommodateOnDate reports whether any available table seats the party.
// Capacity-only existence check; time-range conflicts are not consulted.
func (e *AvailabilityEngine) CanAccommodateOnDate(r *Restaurant, partySize int, date Date) (bool, error) {
	if r == nil {
		return false, newValidationError("restaurant", "restaurant is required")
	}
	if partySize <= 0 {
		return false, newValidationError("party size", "party size must be positive")
	}
	for _, t := range r.Tables() {
		if t.Available && t.Seats >= partySize {
			return true, nil
		}
	}
	return false, nil
}

// ValidateReservationConstraints is the composite guard run before a booking
// is taken. Each failing condition raises a distinct error; weather-dependent
// zones only log an advisory.
func (e *AvailabilityEngine) ValidateReservationConstraints(r *Restaurant, t *Table, partySize int, date Date, start, end TimeOfDay) error {
	if err := e.validateQuery(r, partySize, date, start, end); err != nil {
		return err
	}
	if t == nil {
		return newValidationError("table", "table is required")
	}
	if !r.Active {
		return newValidationError("restaurant", "restaurant is not active")
	}
	if !t.Available {
		return newValidationError("table", "table is not available")
	}
	if t.Seats < partySize {
		return &CapacityError{
			Requested: partySize,
			Capacity:  t.Seats,
			Reason:    "party size exceeds table capacity",
		}
	}
	if !t.IsAvailableAt(date, start, end) {
		return &OverlapError{Reason: "table is already booked for the requested time"}
	}
	if t.Location.RequiresMinimumParty() && partySize < t.Location.MinimumPartySize() {
		return newValidationError("party size", "party does not meet the minimum size for this location")
	}
	if t.Location.WeatherDependent() {
		e.logger.Info("weather-dependent seating requested",
			slog.String("restaurant_id", r.ID),
			slog.String("table_id", t.ID),
			slog.String("location", string(t.Location)),
			slog.String("date", date.String()),
		)
	}
	return nil
}
