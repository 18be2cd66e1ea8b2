package ratelimiter

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pefocdelemne/ratelimit/core/logger"
)

// Limiter answers "is this (key, endpoint) within quota" against a
// shared store using a true sliding window: the count of live records
// at time T equals the number of attempts in [T-window, T].
//
// The engine holds no locks and owns no goroutines; correctness under
// concurrent callers relies on the store's atomic inserts and consistent
// reads plus record immutability. Two concurrent requests may both read
// a count just under the limit and both pass; that race is an accepted
// property of the approximate sliding window.
type Limiter struct {
	store      Store
	log        *slog.Logger
	now        func() time.Time
	failClosed bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger for degradation and record failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// WithTimeFunc replaces the engine clock. Used in tests to simulate the
// passage of time.
func WithTimeFunc(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithFailClosed makes the engine deny requests when the store is
// unavailable. The default is to fail open: a down rate-limit store must
// not become a denial-of-service vector against the protected endpoint.
func WithFailClosed() Option {
	return func(l *Limiter) {
		l.failClosed = true
	}
}

// New creates a limiter backed by store. A nil store is allowed and
// puts the engine in degraded mode; rate limiting must never be a hard
// dependency for basic service availability.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store: store,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports whether (key, endpoint) is within quota under policy.
// It never returns an error and never panics: store failures degrade to
// the configured failure policy instead of propagating, so the check
// path can never 500 the protected endpoint.
func (l *Limiter) Check(ctx context.Context, key, endpoint string, policy Policy) Result {
	now := l.now()

	if l.store == nil {
		return l.degrade(policy, now, nil)
	}

	since := now.Add(-policy.Window)
	count, err := l.store.Count(ctx, key, endpoint, since)
	if err != nil {
		return l.degrade(policy, now, err)
	}

	res := Result{
		Allowed: int(count) < policy.Limit,
		Count:   int(count),
		Limit:   policy.Limit,
		Window:  policy.Window,
	}
	if res.Allowed {
		return res
	}

	oldest, found, err := l.store.Oldest(ctx, key, endpoint, since)
	if err != nil {
		return l.degrade(policy, now, err)
	}
	if found {
		res.ResetAt = oldest.Add(policy.Window)
		res.ResetIn = max(0, res.ResetAt.Sub(now))
	}
	return res
}

// RecordAttempt inserts one attempt record with an effective lifetime of
// exactly window. Recording is best-effort: a failure to record must not
// fail a request that already passed the check, so errors are logged and
// swallowed.
func (l *Limiter) RecordAttempt(ctx context.Context, key, endpoint string, window time.Duration) {
	if l.store == nil {
		return
	}

	now := l.now()
	rec := Record{
		Key:       key,
		Endpoint:  endpoint,
		CreatedAt: now,
		ExpiresAt: now.Add(window),
	}
	if err := l.store.Record(ctx, rec); err != nil {
		l.log.WarnContext(ctx, "failed to record rate limit attempt",
			logger.Component("ratelimiter"),
			logger.Endpoint(endpoint),
			logger.Error(err),
		)
	}
}

// Info returns the same shape as a blocked check result but computed
// unconditionally and without recording anything, for introspection
// endpoints that let callers inspect their own quota. With the store
// unavailable it degrades to a zero-attempt, not-limited result.
func (l *Limiter) Info(ctx context.Context, key, endpoint string, policy Policy) Result {
	now := l.now()

	res := Result{
		Allowed: true,
		Limit:   policy.Limit,
		Window:  policy.Window,
	}
	if l.store == nil {
		res.Degraded = true
		return res
	}

	since := now.Add(-policy.Window)
	count, err := l.store.Count(ctx, key, endpoint, since)
	if err != nil {
		l.logDegraded(ctx, err)
		res.Degraded = true
		return res
	}

	res.Count = int(count)
	res.Allowed = res.Count < policy.Limit

	if res.Count > 0 {
		oldest, found, err := l.store.Oldest(ctx, key, endpoint, since)
		if err == nil && found {
			res.ResetAt = oldest.Add(policy.Window)
			res.ResetIn = max(0, res.ResetAt.Sub(now))
		}
	}
	return res
}

func (l *Limiter) degrade(policy Policy, now time.Time, err error) Result {
	l.logDegraded(context.Background(), err)

	res := Result{
		Allowed:  !l.failClosed,
		Degraded: true,
		Limit:    policy.Limit,
		Window:   policy.Window,
	}
	if !res.Allowed {
		// No oldest record to derive a reset from; the window length is
		// the safest retry hint available.
		res.ResetAt = now.Add(policy.Window)
		res.ResetIn = policy.Window
	}
	return res
}

func (l *Limiter) logDegraded(ctx context.Context, err error) {
	if err == nil {
		return
	}
	l.log.WarnContext(ctx, "rate limit store error, degrading",
		logger.Component("ratelimiter"),
		logger.Error(err),
	)
}
