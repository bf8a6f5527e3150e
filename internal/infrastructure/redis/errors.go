package redis

import "errors"

// Sentinel errors for Redis operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, redis.ErrConnectionFailed) {
//	    // Handle unreachable cache
//	}
var (
	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("redis: connection failed")

	// ErrNotConnected indicates the client has been closed.
	ErrNotConnected = errors.New("redis: not connected")
)
