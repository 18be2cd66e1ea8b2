// Package ratelimiter provides sliding-window rate limiting backed by a
// shared, TTL-expiring store.
//
// The engine was built for SMS verification endpoints, where abuse is
// per-identity (one phone number hammered for codes) rather than
// per-host, but it limits any (key, endpoint) pair. It favors
// availability over strictness: when the backing store is down, checks
// degrade instead of failing, so rate limiting is never a hard
// dependency of the protected service.
//
// # Sliding Window
//
// The algorithm counts attempts in the trailing window ending at "now",
// as opposed to fixed calendar buckets:
//
//  1. Every allowed attempt inserts one immutable record with its
//     creation and expiry timestamps.
//  2. A check counts records for (key, endpoint) created within the
//     last window; at or above the limit the request is denied.
//  3. A denied check locates the oldest in-window record; the quota
//     resets exactly one window after that record was created.
//  4. The store expires records past expires_at on its own, but every
//     query also filters by created_at, so a delayed expiry sweep never
//     inflates counts.
//
// No in-process locking is involved. Correctness under concurrent
// callers relies on the store's atomic inserts and consistent reads
// plus record immutability; two concurrent requests may both observe a
// count just under the limit and both pass. The window is approximate
// by design.
//
// # Usage
//
// Engine setup with MongoDB:
//
//	store := ratelimiter.NewMongoStore(db)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	limiter := ratelimiter.New(store, ratelimiter.WithLogger(log))
//
// Checking and recording:
//
//	policy := policies.Resolve(ratelimiter.EndpointSMSVerify, ratelimiter.Override{})
//	res := limiter.Check(ctx, key, ratelimiter.EndpointSMSVerify, policy)
//	if !res.Allowed {
//		// deny with res.RetryAfter() and res.ResetAt
//		return
//	}
//	limiter.RecordAttempt(ctx, key, ratelimiter.EndpointSMSVerify, policy.Window)
//
// # Key Derivation
//
// Keys namespace the counted identity. Identity-sensitive endpoints key
// on the caller's normalized phone number and fall back to the client
// IP when the payload carries none:
//
//	deriver := ratelimiter.DefaultKeyDeriver()
//	key := deriver.Derive(payload, "sms_verify", clientIP)
//	// "phone:+40712345678" or "ip:203.0.113.7"
//
// # Policy Resolution
//
// Effective limits resolve through four layers, each replacing only the
// fields it sets: generic fallback, built-in per-endpoint default,
// startup override (usually RATE_LIMIT_<NAME>_LIMIT /
// RATE_LIMIT_<NAME>_WINDOW from the environment), and the call-site
// override. Limit and window resolve independently, so an environment
// that only raises the limit keeps the default window.
//
//	policies := ratelimiter.NewPolicies(
//		ratelimiter.WithEnvOverrides(
//			ratelimiter.EndpointSMSVerify,
//			ratelimiter.EndpointSMSConfirm,
//		),
//	)
//
// # Failure Semantics
//
// Check never returns an error. A nil store, a store operation error, or
// a store timeout all produce a degraded result: allowed under the
// default fail-open policy, denied under WithFailClosed. RecordAttempt
// is best-effort and swallows store errors after logging them: a
// request that already passed its check must not fail because the
// bookkeeping write did.
//
// # Storage Backends
//
// MongoStore (shared, primary): one document per attempt, a TTL index on
// expires_at for expiry and a compound (key, endpoint, created_at) index
// for counts.
//
// RedisStore (shared, alternative): one sorted set per (key, endpoint)
// with creation-time scores; counting is a score range query, expiry a
// combination of trimming and key TTL.
//
// MemoryStore (single process): record slices per (key, endpoint) with
// an optional background sweep. Used in tests and for deployments
// without shared infrastructure.
package ratelimiter
