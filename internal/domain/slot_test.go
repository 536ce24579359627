package domain

import (
	"errors"
	"testing"
	"time"
)

func testClock() FixedClock {
	return FixedClock{Instant: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
}

func tomorrow() Date {
	return DateOf(testClock().Instant.AddDate(0, 0, 1))
}

func mustSlot(t *testing.T, start, end string, partySize int) *ReservationSlot {
	t.Helper()
	s, err := NewReservationSlot(testClock(), tomorrow(), MustTimeOfDay(start), MustTimeOfDay(end), partySize)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	return s
}

func TestNewReservationSlotValidation(t *testing.T) {
	clock := testClock()
	yesterday := DateOf(clock.Instant.AddDate(0, 0, -1))

	cases := []struct {
		name      string
		date      Date
		start     string
		end       string
		partySize int
	}{
		{name: "past date", date: yesterday, start: "19:00", end: "21:00", partySize: 2},
		{name: "zero date", date: Date{}, start: "19:00", end: "21:00", partySize: 2},
		{name: "end before start", date: tomorrow(), start: "21:00", end: "19:00", partySize: 2},
		{name: "end equals start", date: tomorrow(), start: "19:00", end: "19:00", partySize: 2},
		{name: "too short", date: tomorrow(), start: "19:00", end: "19:15", partySize: 2},
		{name: "too long", date: tomorrow(), start: "17:00", end: "21:30", partySize: 2},
		{name: "zero party", date: tomorrow(), start: "19:00", end: "21:00", partySize: 0},
		{name: "negative party", date: tomorrow(), start: "19:00", end: "21:00", partySize: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReservationSlot(clock, tc.date, MustTimeOfDay(tc.start), MustTimeOfDay(tc.end), tc.partySize)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	// Boundary durations are inclusive.
	if _, err := NewReservationSlot(clock, tomorrow(), MustTimeOfDay("19:00"), MustTimeOfDay("19:30"), 2); err != nil {
		t.Errorf("30 minute slot should be accepted: %v", err)
	}
	if _, err := NewReservationSlot(clock, tomorrow(), MustTimeOfDay("17:00"), MustTimeOfDay("21:00"), 2); err != nil {
		t.Errorf("4 hour slot should be accepted: %v", err)
	}
	// Booking for today is allowed; only strictly past dates are rejected.
	if _, err := NewReservationSlot(clock, Today(clock), MustTimeOfDay("19:00"), MustTimeOfDay("21:00"), 2); err != nil {
		t.Errorf("same-day slot should be accepted: %v", err)
	}
}

func TestSlotLifecycle(t *testing.T) {
	s := mustSlot(t, "19:00", "21:00", 2)
	if s.Status != StatusAvailable {
		t.Fatalf("initial status = %s, want AVAILABLE", s.Status)
	}
	if err := s.Confirm(); err != nil {
		t.Fatalf("confirm from AVAILABLE: %v", err)
	}
	if s.Status != StatusConfirmed {
		t.Fatalf("status after confirm = %s", s.Status)
	}
	if err := s.Complete(); err != nil {
		t.Fatalf("complete from CONFIRMED: %v", err)
	}
	if s.Status != StatusCompleted {
		t.Fatalf("status after complete = %s", s.Status)
	}
}

func TestSlotCancelPath(t *testing.T) {
	s := mustSlot(t, "19:00", "21:00", 2)
	if err := s.Cancel(); err == nil {
		t.Fatal("cancel from AVAILABLE must fail")
	} else if err.Error() != "cannot cancel a slot that is not confirmed" {
		t.Fatalf("unexpected message: %v", err)
	}
	if err := s.Confirm(); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("cancel from CONFIRMED: %v", err)
	}
	if s.Status != StatusCancelled {
		t.Fatalf("status after cancel = %s", s.Status)
	}
}

func TestSlotTransitionMessages(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(*ReservationSlot)
		action  func(*ReservationSlot) error
		message string
	}{
		{
			name:    "confirm confirmed",
			prepare: func(s *ReservationSlot) { _ = s.Confirm() },
			action:  (*ReservationSlot).Confirm,
			message: "cannot confirm a slot that is not available",
		},
		{
			name:    "complete available",
			prepare: func(s *ReservationSlot) {},
			action:  (*ReservationSlot).Complete,
			message: "cannot complete an unconfirmed slot",
		},
		{
			name:    "complete cancelled",
			prepare: func(s *ReservationSlot) { _ = s.Confirm(); _ = s.Cancel() },
			action:  (*ReservationSlot).Complete,
			message: "cannot complete a cancelled slot",
		},
		{
			name:    "cancel completed",
			prepare: func(s *ReservationSlot) { _ = s.Confirm(); _ = s.Complete() },
			action:  (*ReservationSlot).Cancel,
			message: "cannot cancel a completed slot",
		},
		{
			name:    "cancel cancelled",
			prepare: func(s *ReservationSlot) { _ = s.Confirm(); _ = s.Cancel() },
			action:  (*ReservationSlot).Cancel,
			message: "cannot cancel a cancelled slot",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := mustSlot(t, "19:00", "21:00", 2)
			tc.prepare(s)
			err := tc.action(s)
			var terr *StateTransitionError
			if !errors.As(err, &terr) {
				t.Fatalf("expected StateTransitionError, got %v", err)
			}
			if terr.Reason != tc.message {
				t.Fatalf("message = %q, want %q", terr.Reason, tc.message)
			}
		})
	}
}

func TestTerminalStatesAreClosed(t *testing.T) {
	for _, terminal := range []func(*ReservationSlot){
		func(s *ReservationSlot) { _ = s.Confirm(); _ = s.Complete() },
		func(s *ReservationSlot) { _ = s.Confirm(); _ = s.Cancel() },
	} {
		s := mustSlot(t, "19:00", "21:00", 2)
		terminal(s)
		before := s.Status
		if err := s.Confirm(); err == nil {
			t.Fatalf("confirm succeeded from %s", before)
		}
		if err := s.Cancel(); err == nil {
			t.Fatalf("cancel succeeded from %s", before)
		}
		if err := s.Complete(); err == nil {
			t.Fatalf("complete succeeded from %s", before)
		}
		if s.Status != before {
			t.Fatalf("status moved from %s to %s", before, s.Status)
		}
	}
}

func TestSlotEquality(t *testing.T) {
	a := mustSlot(t, "19:00", "21:00", 2)
	b := mustSlot(t, "19:00", "21:00", 4)
	if !a.Equals(b) {
		t.Fatal("unpersisted slots with the same business key should be equal")
	}
	a.ID = "slot-1"
	b.ID = "slot-2"
	if a.Equals(b) {
		t.Fatal("persisted slots with different ids should differ")
	}
	b.ID = "slot-1"
	if !a.Equals(b) {
		t.Fatal("persisted slots with the same id should be equal")
	}
	if a.Equals(nil) {
		t.Fatal("nil never equals a slot")
	}
}

func TestSlotOverlapRequiresSameDate(t *testing.T) {
	a := mustSlot(t, "19:00", "21:00", 2)
	b := mustSlot(t, "19:00", "21:00", 2)
	b.Date = DateOf(testClock().Instant.AddDate(0, 0, 2))
	if a.Overlaps(b) {
		t.Fatal("slots on different dates never overlap")
	}
}
