package services

import (
	"errors"
	"testing"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("row missing")
	err := Wrap(ErrNotFound, "status", "apply transition", "vehicle 7", base)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToUnavailable(t *testing.T) {
	err := Wrap(nil, "push", "send", "", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable default, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrInvalidTransition, "status", "", "", nil), false},
		{Wrap(ErrValidation, "outbox", "", "", nil), false},
		{Wrap(ErrNotFound, "store", "", "", nil), false},
		{Wrap(ErrUnavailable, "push", "", "", nil), true},
		{Wrap(ErrTimeout, "documents", "", "", nil), true},
		{errors.New("plain"), true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
