package ratelimit

import "errors"

var (
	// ErrInvalidClientID is returned for an empty client identifier,
	// before any store access happens.
	ErrInvalidClientID = errors.New("invalid client id")

	// ErrStoreUnavailable wraps connectivity and timeout failures talking
	// to the counter store. The engine performs no retries.
	ErrStoreUnavailable = errors.New("counter store unavailable")

	// ErrCorruptState wraps a stored counter value that is not a
	// non-negative integer. The counter is left untouched; resetting it
	// would erase a client's legitimate consumption.
	ErrCorruptState = errors.New("corrupt counter state")
)
