package ratelimiter

import "time"

// Result reports the outcome of a limit check or a diagnostic lookup.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Degraded is set when the decision was made without a working
	// store (fail-open or fail-closed, depending on engine policy).
	Degraded bool
	// Count is the number of live attempts observed in the window.
	Count int
	// Limit and Window echo the policy the decision was made against.
	Limit  int
	Window time.Duration
	// ResetAt is when the oldest live attempt leaves the window. Zero
	// when no live attempts exist.
	ResetAt time.Time
	// ResetIn is the time until ResetAt, clamped to zero, computed
	// against the engine clock at decision time.
	ResetIn time.Duration
}

// Limited reports whether the observed count has reached the limit.
func (r Result) Limited() bool {
	return r.Count >= r.Limit
}

// Remaining returns the quota left in the current window, clamped to zero.
func (r Result) Remaining() int {
	return max(0, r.Limit-r.Count)
}

// RetryAfter returns how long a denied caller should wait before
// retrying, clamped to zero.
func (r Result) RetryAfter() time.Duration {
	return max(0, r.ResetIn)
}
