package device

import (
	"errors"
	"fmt"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist,
	// or exists but is not owned by the requesting user.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrUnsupportedKind is returned when a device kind is outside
	// {production, storage, consumption}.
	ErrUnsupportedKind = errors.New("device: unsupported kind")

	// ErrValidation is the match target for all validation failures.
	// The concrete error is always a *ValidationError carrying the
	// offending field and a machine-readable reason.
	ErrValidation = errors.New("device: validation failed")
)

// ValidationError describes a business-rule violation in mutation input.
//
// Callers branch on errors.Is(err, ErrValidation) and can surface Field
// and Reason to clients without parsing message text.
type ValidationError struct {
	// Field is the offending input field, in wire naming
	// (e.g. "current_level_wh").
	Field string

	// Reason is a short machine-readable description
	// (e.g. "exceeds total_capacity_wh").
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("device: invalid %s: %s", e.Field, e.Reason)
}

// Is makes ValidationError match ErrValidation under errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// invalidf builds a *ValidationError with a formatted reason.
func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
