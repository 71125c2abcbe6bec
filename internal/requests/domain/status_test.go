package domain

import (
	"testing"

	"gearbox_backend/platform/apperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		// Allowed caller-driven edges.
		{StatusPending, StatusCancelled, true},
		{StatusQuoted, StatusCancelled, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},

		// quoted and confirmed are engine-driven, never caller-driven.
		{StatusPending, StatusQuoted, false},
		{StatusPending, StatusConfirmed, false},
		{StatusQuoted, StatusConfirmed, false},
		{StatusQuoted, StatusPending, false},

		// No skipping ahead.
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, false},
		{StatusConfirmed, StatusCancelled, false},
		{StatusInProgress, StatusCancelled, false},

		// Terminal states admit nothing.
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusQuoted, false},

		// Self-transitions are not edges.
		{StatusPending, StatusPending, false},
		{StatusInProgress, StatusInProgress, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{StatusCompleted, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range []string{StatusPending, StatusQuoted, StatusConfirmed, StatusInProgress} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestQuotable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPending, true},
		{StatusQuoted, true},
		{StatusConfirmed, false},
		{StatusInProgress, false},
		{StatusCompleted, false},
		{StatusCancelled, false},
	}
	for _, tc := range tests {
		if got := Quotable(tc.status); got != tc.want {
			t.Errorf("Quotable(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		kind apperr.Kind
	}{
		{"allowed edge", StatusConfirmed, StatusInProgress, apperr.KindUnknown},
		{"cancel from pending", StatusPending, StatusCancelled, apperr.KindUnknown},
		{"disallowed edge", StatusPending, StatusCompleted, apperr.KindInvalidTransition},
		{"same status", StatusInProgress, StatusInProgress, apperr.KindInvalidTransition},

		// A terminal request reports invalid_state before anything else,
		// including the degenerate completed→completed repeat.
		{"terminal repeat", StatusCompleted, StatusCompleted, apperr.KindInvalidState},
		{"terminal to other", StatusCompleted, StatusInProgress, apperr.KindInvalidState},
		{"cancelled repeat", StatusCancelled, StatusCancelled, apperr.KindInvalidState},
		{"cancelled to pending", StatusCancelled, StatusPending, apperr.KindInvalidState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.from, tc.to)
			if tc.kind == apperr.KindUnknown {
				if err != nil {
					t.Fatalf("ValidateTransition(%q, %q) = %v, want nil", tc.from, tc.to, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateTransition(%q, %q) = nil, want kind %v", tc.from, tc.to, tc.kind)
			}
			if got := apperr.GetKind(err); got != tc.kind {
				t.Errorf("ValidateTransition(%q, %q) kind = %v, want %v", tc.from, tc.to, got, tc.kind)
			}
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusQuoted, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled} {
		if !IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "Pending", "done", "open"} {
		if IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = true, want false", s)
		}
	}
}
