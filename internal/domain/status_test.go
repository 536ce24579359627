package domain

import "testing"

func TestStatusProperties(t *testing.T) {
	cases := []struct {
		status        ReservationStatus
		active        bool
		terminal      bool
		allowsConfirm bool
		allowsCancel  bool
	}{
		{StatusAvailable, true, false, true, false},
		{StatusConfirmed, true, false, false, true},
		{StatusCancelled, false, true, false, false},
		{StatusCompleted, false, true, false, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.IsActive(); got != tc.active {
				t.Errorf("IsActive = %v, want %v", got, tc.active)
			}
			if got := tc.status.IsTerminal(); got != tc.terminal {
				t.Errorf("IsTerminal = %v, want %v", got, tc.terminal)
			}
			if got := tc.status.AllowsConfirmation(); got != tc.allowsConfirm {
				t.Errorf("AllowsConfirmation = %v, want %v", got, tc.allowsConfirm)
			}
			if got := tc.status.AllowsCancellation(); got != tc.allowsCancel {
				t.Errorf("AllowsCancellation = %v, want %v", got, tc.allowsCancel)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  ReservationStatus
		ok    bool
	}{
		{name: "lowercase", input: " confirmed ", want: StatusConfirmed, ok: true},
		{name: "uppercase", input: "AVAILABLE", want: StatusAvailable, ok: true},
		{name: "unknown", input: "seated", ok: false},
		{name: "blank", input: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeStatus(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("NormalizeStatus(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
			}
		})
	}
}
