package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the toggle request lifecycle, in the order they are checked.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrRecordNotFound      = errors.New("record not found")
	ErrAttributeRequired   = errors.New("attribute required")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrAttributeNotBoolean = errors.New("attribute is not boolean")
)

// ErrInvalidCredentials is returned by a guard that found credentials it could not verify.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoCredentials is returned by a guard when the request carries nothing for it to check.
var ErrNoCredentials = errors.New("no credentials")

// ErrInvalidInput marks request input rejected before any lookup.
var ErrInvalidInput = errors.New("invalid input")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrInvalidInput, field, maxLen)
}
