package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pefocdelemne/ratelimit/core/logger"
	"github.com/pefocdelemne/ratelimit/core/response"
	"github.com/pefocdelemne/ratelimit/pkg/clientip"
	"github.com/pefocdelemne/ratelimit/pkg/phone"
	"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
)

// defaultMaxBodyBytes bounds how much of the request body the gate reads
// while looking for a phone number.
const defaultMaxBodyBytes = 1 << 20

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Endpoint names the logical rate-limit bucket. Required. Several
	// routes may share one bucket; the policy is looked up by this name.
	Endpoint string
	// Limit and Window are call-site policy overrides with the highest
	// precedence. Zero values leave the resolved policy untouched.
	Limit  int
	Window time.Duration
	// Limiter is the rate limiting engine to consult. Required.
	Limiter *ratelimiter.Limiter
	// Policies resolves the effective policy (default: NewPolicies()).
	Policies *ratelimiter.Policies
	// KeyDeriver builds the rate-limit key (default: DefaultKeyDeriver()).
	KeyDeriver *ratelimiter.KeyDeriver
	// Logger receives denial warnings (default: discard).
	Logger *slog.Logger
	// SetHeaders adds X-RateLimit-* headers to allowed responses.
	SetHeaders bool
	// Skip defines a function to skip middleware execution for specific requests.
	Skip func(r *http.Request) bool
	// MaxBodyBytes bounds payload inspection (default 1 MiB).
	MaxBodyBytes int64
}

// RateLimit creates a rate limiting middleware with the provided
// configuration. Every invocation is policy-checked before the wrapped
// handler runs: over-quota requests short-circuit into a structured 429
// response and the handler never executes. Allowed requests are recorded
// best-effort and forwarded.
//
// Panics if no limiter is provided or the endpoint name is empty.
//
//	gate := middleware.RateLimit(middleware.RateLimitConfig{
//		Endpoint:   ratelimiter.EndpointSMSVerify,
//		Limiter:    limiter,
//		Policies:   policies,
//		SetHeaders: true,
//	})
//	mux.Handle("POST /api/sms/verify", gate(verifyHandler))
//
// The gate never produces a 5xx of its own: engine degradation on store
// failure means the only non-2xx it generates is a well-formed 429.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}
	if cfg.Endpoint == "" {
		panic("ratelimit middleware: endpoint name is required")
	}
	if cfg.Policies == nil {
		cfg.Policies = ratelimiter.NewPolicies()
	}
	if cfg.KeyDeriver == nil {
		cfg.KeyDeriver = ratelimiter.DefaultKeyDeriver()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	callOverride := ratelimiter.Override{Limit: cfg.Limit, Window: cfg.Window}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			payload := requestPayload(r, cfg.MaxBodyBytes)
			policy := cfg.Policies.Resolve(cfg.Endpoint, callOverride)
			key := cfg.KeyDeriver.Derive(payload, cfg.Endpoint, clientip.GetIP(r))

			res := cfg.Limiter.Check(r.Context(), key, cfg.Endpoint, policy)
			if !res.Allowed {
				cfg.Logger.WarnContext(r.Context(), "rate limit exceeded",
					logger.Component("middleware"),
					logger.Endpoint(cfg.Endpoint),
					logger.RateLimitKey(phone.MaskKey(key)),
					logger.Count("attempts", res.Count),
				)

				info := cfg.Limiter.Info(r.Context(), key, cfg.Endpoint, policy)
				writeRateLimited(w, cfg.Endpoint, policy, res, info)
				return
			}

			cfg.Limiter.RecordAttempt(r.Context(), key, cfg.Endpoint, policy.Window)

			if cfg.SetHeaders {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(policy.Limit))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining()))
				h.Set("X-RateLimit-Window", strconv.Itoa(int(policy.Window.Seconds())))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimited renders the structured 429 with retry metadata in
// both the body and the standard headers.
func writeRateLimited(w http.ResponseWriter, endpoint string, policy ratelimiter.Policy, res, info ratelimiter.Result) {
	attempts := info.Count
	resetAt := info.ResetAt
	resetIn := info.RetryAfter()
	if resetAt.IsZero() {
		// Degraded diagnostics: fall back to the denial's own numbers.
		attempts = res.Count
		resetAt = res.ResetAt
		resetIn = res.RetryAfter()
	}

	resetSeconds := int(resetIn.Seconds())
	resetMinutes := (resetSeconds + 59) / 60

	details := map[string]any{
		"endpoint":         endpoint,
		"limit":            policy.Limit,
		"window_hours":     policy.Window.Hours(),
		"attempts_count":   attempts,
		"reset_in_seconds": resetSeconds,
		"reset_in_minutes": resetMinutes,
	}
	if !resetAt.IsZero() {
		details["reset_at"] = resetAt.UTC().Format(time.RFC3339)
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(policy.Limit))
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSeconds))
	h.Set("Retry-After", strconv.Itoa(resetSeconds))

	_ = response.Fail(w, response.ErrRateLimitExceeded.
		WithMessage(fmt.Sprintf("Rate limit exceeded. Try again in %d minutes.", resetMinutes)).
		WithDetails(details))
}

// requestPayload decodes the body as a JSON object, restoring it so the
// wrapped handler can read it again. Parse failures are not the gate's
// concern and yield a nil payload, which falls back to IP keying.
func requestPayload(r *http.Request, limit int64) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}
