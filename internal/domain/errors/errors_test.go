package errors

import (
	stdErrors "errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"not owner", ErrNotOwner},
		{"invalid credentials", ErrInvalidCredentials},
		{"insufficient stock", ErrInsufficientStock},
		{"invalid address", ErrInvalidAddress},
		{"items not found", ErrItemsNotFound},
		{"order not pending", ErrOrderNotPending},
		{"already paid", ErrAlreadyPaid},
		{"verification failed", ErrVerificationFailed},
		{"invalid state", ErrInvalidState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}
