package auth

import "errors"

// Sentinel errors for token handling.
var (
	// ErrTokenInvalid indicates a token failed signature, expiry, or
	// shape validation.
	ErrTokenInvalid = errors.New("auth: invalid token")
)
