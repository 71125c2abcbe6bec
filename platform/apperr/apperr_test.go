package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindInvalidState, http.StatusBadRequest},
		{KindInvalidTransition, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindForbidden, http.StatusForbidden},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
		{KindExpired, http.StatusGone},
		{KindUnknown, http.StatusBadRequest},
	}

	for _, tc := range tests {
		got := New(tc.kind, "x").HTTPStatus()
		if got != tc.want {
			t.Errorf("HTTPStatus for kind %d = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestErrorCodeDerivedFromKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNotFound, "not_found"},
		{KindValidation, "validation_error"},
		{KindConflict, "conflict"},
		{KindInvalidState, "invalid_state"},
		{KindInvalidTransition, "invalid_transition"},
		{KindExpired, "expired"},
		{KindInternal, "internal"},
	}

	for _, tc := range tests {
		got := New(tc.kind, "x").ErrorCode()
		if got != tc.want {
			t.Errorf("ErrorCode for kind %d = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestExplicitCodeWins(t *testing.T) {
	err := Conflict("provider already submitted a quote").WithCode("duplicate_quote")
	if err.ErrorCode() != "duplicate_quote" {
		t.Fatalf("ErrorCode = %q, want duplicate_quote", err.ErrorCode())
	}
	if err.HTTPStatus() != http.StatusConflict {
		t.Fatalf("HTTPStatus = %d, want 409", err.HTTPStatus())
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(KindInternal, "store failure", inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to find wrapped error")
	}
}
