// Package auth issues and validates the JWT access tokens that scope
// API requests to a single device owner.
//
// Tokens are HS256-signed with the shared secret from configuration.
// The subject claim carries the owner ID; handlers read it from the
// request context after the auth middleware has validated the token.
package auth
