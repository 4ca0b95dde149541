package model

import "testing"

func TestCoupleStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to CoupleStatus
		want     bool
	}{
		{CoupleInquiry, CoupleConsultation, true},
		{CoupleInquiry, CoupleBooked, true},
		{CoupleBooked, CoupleCompleted, true},
		{CoupleBooked, CoupleInquiry, false},
		{CoupleConsultation, CoupleCancelled, true},
		{CoupleCompleted, CoupleCancelled, false},
		{CoupleCancelled, CoupleInquiry, false},
		{CoupleBooked, CoupleBooked, true},
		{CoupleInquiry, CoupleStatus("married"), false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCoupleStatus_IsActive(t *testing.T) {
	t.Parallel()

	for _, s := range []CoupleStatus{CoupleInquiry, CoupleConsultation, CoupleBooked} {
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
	}
	for _, s := range []CoupleStatus{CoupleCompleted, CoupleCancelled} {
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
	}
}

func TestCouple_DisplayName(t *testing.T) {
	t.Parallel()

	c := &Couple{Partner1Name: "Alex", Partner2Name: "Sam"}
	if got := c.DisplayName(); got != "Alex & Sam" {
		t.Errorf("DisplayName = %q, want %q", got, "Alex & Sam")
	}
}
