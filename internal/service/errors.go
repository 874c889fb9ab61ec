package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential covers bad signatures and tokens whose embedded
	// credential version no longer matches the stored one.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrUnauthorized is returned for anonymous callers on protected
	// operations and for non-members of a target group. Absent groups
	// surface the same way so existence is not leaked.
	ErrUnauthorized = errors.New("unauthorized")

	ErrValidation = errors.New("validation failed")

	// ErrConflict reports uniqueness violations (duplicate signup email).
	ErrConflict = errors.New("conflict")

	// ErrUnavailable wraps store adapter failures.
	ErrUnavailable = errors.New("store unavailable")
)

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
