// Package middleware provides the HTTP-facing surface of the rate
// limiting engine: a gate that policy-checks requests before their
// handlers run, and an introspection handler for quota lookups.
//
// The gate composes around any http.Handler:
//
//	limiter := ratelimiter.New(store, ratelimiter.WithLogger(log))
//	policies := ratelimiter.NewPolicies(
//		ratelimiter.WithEnvOverrides(
//			ratelimiter.EndpointSMSVerify,
//			ratelimiter.EndpointSMSConfirm,
//		),
//	)
//
//	verifyGate := middleware.RateLimit(middleware.RateLimitConfig{
//		Endpoint:   ratelimiter.EndpointSMSVerify,
//		Limiter:    limiter,
//		Policies:   policies,
//		Logger:     log,
//		SetHeaders: true,
//	})
//	mux.Handle("POST /api/sms/verify", verifyGate(verifyHandler))
//
// Denied requests receive a 429 with a machine-readable envelope and the
// standard X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset
// and Retry-After headers. Phone-based keys are masked before logging;
// a full phone number never reaches the log stream from this path.
//
// Failure handling follows the engine: no store outage or payload parse
// problem ever surfaces as a 5xx from the gate. A malformed JSON body
// simply falls back to IP keying and is left for the wrapped handler to
// reject on its own terms.
package middleware
