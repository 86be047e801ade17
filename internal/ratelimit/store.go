package ratelimit

import (
	"context"
	"time"
)

// Admission is the outcome of a single atomic check-and-increment.
type Admission struct {
	// Admitted reports whether the request was counted against the quota.
	Admitted bool
	// Count is the counter value after the call.
	Count int64
	// ResetIn is the time left on the current window. Zero when the call
	// left no active window behind.
	ResetIn time.Duration
}

// CounterStore defines the interface for shared counter storage.
//
// Implementations must execute Admit atomically: concurrent calls for the
// same key may never admit more requests than the limit allows. Admit is
// the only operation that mutates a counter.
type CounterStore interface {
	// Admit checks the counter for key against limit and, when below it,
	// increments by one. The first admission of a window creates the
	// counter with count 1 and a time-to-live of window; later admissions
	// leave the expiry untouched. At or above the limit nothing is written.
	Admit(ctx context.Context, key string, limit int64, window time.Duration) (Admission, error)

	// Count returns the current counter value for key. Absent keys count
	// as zero.
	Count(ctx context.Context, key string) (int64, error)

	// TimeToLive returns the time left on the counter's window. ok is
	// false when no counter exists or the counter carries no expiry.
	TimeToLive(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)
}
