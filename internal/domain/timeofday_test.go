package domain

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "19:00", want: 19 * 60},
		{input: "00:00", want: 0},
		{input: "23:59", want: 23*60 + 59},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "noon", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.input, got, tc.want)
		}
		if got.String() != tc.input {
			t.Errorf("round trip of %q gave %q", tc.input, got.String())
		}
	}
}

func TestRangesOverlapSymmetry(t *testing.T) {
	ranges := []struct{ start, end TimeOfDay }{
		{MustTimeOfDay("18:00"), MustTimeOfDay("20:00")},
		{MustTimeOfDay("19:00"), MustTimeOfDay("21:00")},
		{MustTimeOfDay("20:00"), MustTimeOfDay("22:00")},
		{MustTimeOfDay("09:30"), MustTimeOfDay("10:00")},
	}
	for _, a := range ranges {
		for _, b := range ranges {
			ab := RangesOverlap(a.start, a.end, b.start, b.end)
			ba := RangesOverlap(b.start, b.end, a.start, a.end)
			if ab != ba {
				t.Fatalf("overlap not symmetric for %v-%v vs %v-%v", a.start, a.end, b.start, b.end)
			}
		}
	}
}

func TestAdjacentRangesDoNotOverlap(t *testing.T) {
	if RangesOverlap(MustTimeOfDay("19:00"), MustTimeOfDay("21:00"), MustTimeOfDay("21:00"), MustTimeOfDay("23:00")) {
		t.Fatal("touching endpoints must not overlap")
	}
	if !RangesOverlap(MustTimeOfDay("19:00"), MustTimeOfDay("21:00"), MustTimeOfDay("20:59"), MustTimeOfDay("23:00")) {
		t.Fatal("one-minute intersection must overlap")
	}
}

func TestRangeContains(t *testing.T) {
	start, end := MustTimeOfDay("19:00"), MustTimeOfDay("21:00")
	if !RangeContains(start, end, MustTimeOfDay("19:00")) {
		t.Error("start is inside the half-open range")
	}
	if RangeContains(start, end, MustTimeOfDay("21:00")) {
		t.Error("end is outside the half-open range")
	}
	if !RangeContains(start, end, MustTimeOfDay("20:30")) {
		t.Error("interior point should be contained")
	}
}

func TestDateOrdering(t *testing.T) {
	d1 := Date{Year: 2026, Month: time.March, Day: 5}
	d2 := Date{Year: 2026, Month: time.March, Day: 6}
	if !d1.Before(d2) || d2.Before(d1) {
		t.Fatal("date ordering broken")
	}
	if d1.Before(d1) {
		t.Fatal("a date is not before itself")
	}
	parsed, err := ParseDate("2026-03-05")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if parsed != d1 {
		t.Fatalf("parsed %v, want %v", parsed, d1)
	}
}
