package ratelimit

import (
	"context"
	"time"
)

// KeyPrefix namespaces counter keys in the store. Existing deployments
// depend on this exact prefix.
const KeyPrefix = "rate_limit:"

// Decision is the outcome of an admission check plus the quota metadata
// callers need to build rate-limit responses.
type Decision struct {
	// Allowed reports whether the request was admitted.
	Allowed bool
	// Remaining is the quota left after this decision, clamped to zero.
	Remaining int64
	// ResetIn is the time until the current window expires. Only
	// meaningful when HasWindow is true.
	ResetIn time.Duration
	// HasWindow reports whether an active window exists for the client.
	HasWindow bool
	// WindowStarted reports whether this admission opened a fresh window.
	WindowStarted bool
}

// FixedWindowLimiter enforces a per-client request quota over a fixed
// window anchored at the client's first admitted request.
//
// The limiter holds no mutable state of its own; every counter lives in
// the shared store, so any number of limiter instances across processes
// agree on a client's consumption. A client can spend its full quota at
// the end of one window and again right after the reset; that burst is the
// accepted cost of the single-round-trip model.
type FixedWindowLimiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a limiter admitting at most limit requests
// per client per window. Both must be positive.
func NewFixedWindowLimiter(store CounterStore, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Limit returns the configured per-window quota.
func (l *FixedWindowLimiter) Limit() int64 {
	return l.limit
}

// Window returns the configured window length.
func (l *FixedWindowLimiter) Window() time.Duration {
	return l.window
}

// Allow decides whether one request from clientID is admitted and counts
// it if so. Denials never mutate the counter. Store failures surface as
// ErrStoreUnavailable or ErrCorruptState; the caller owns the fail-open
// versus fail-closed trade-off.
func (l *FixedWindowLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	key, err := l.key(clientID)
	if err != nil {
		return Decision{}, err
	}

	adm, err := l.store.Admit(ctx, key, l.limit, l.window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:       adm.Admitted,
		Remaining:     clamp(l.limit - adm.Count),
		ResetIn:       adm.ResetIn,
		HasWindow:     adm.ResetIn > 0,
		WindowStarted: adm.Admitted && adm.Count == 1,
	}, nil
}

// Remaining returns the quota left for clientID without mutating anything.
// Clients with no active window have their full quota.
func (l *FixedWindowLimiter) Remaining(ctx context.Context, clientID string) (int64, error) {
	key, err := l.key(clientID)
	if err != nil {
		return 0, err
	}

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return 0, err
	}

	return clamp(l.limit - count), nil
}

// ResetIn returns the time until clientID's window expires. ok is false
// when no window is active, which callers must treat as "no reset
// pending" rather than a zero duration.
func (l *FixedWindowLimiter) ResetIn(ctx context.Context, clientID string) (time.Duration, bool, error) {
	key, err := l.key(clientID)
	if err != nil {
		return 0, false, err
	}

	return l.store.TimeToLive(ctx, key)
}

func (l *FixedWindowLimiter) key(clientID string) (string, error) {
	if clientID == "" {
		return "", ErrInvalidClientID
	}

	return KeyPrefix + clientID, nil
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}

	return n
}
