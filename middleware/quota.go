package middleware

import (
	"net/http"
	"time"

	"github.com/pefocdelemne/ratelimit/core/response"
	"github.com/pefocdelemne/ratelimit/pkg/clientip"
	"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
)

// QuotaConfig configures the quota introspection handler.
type QuotaConfig struct {
	// Limiter is the engine to query. Required.
	Limiter *ratelimiter.Limiter
	// Policies resolves the effective policy (default: NewPolicies()).
	Policies *ratelimiter.Policies
	// KeyDeriver builds the rate-limit key (default: DefaultKeyDeriver()).
	KeyDeriver *ratelimiter.KeyDeriver
}

type quotaStatus struct {
	Endpoint       string  `json:"endpoint"`
	Limit          int     `json:"limit"`
	WindowHours    float64 `json:"window_hours"`
	AttemptsCount  int     `json:"attempts_count"`
	Remaining      int     `json:"remaining"`
	IsRateLimited  bool    `json:"is_rate_limited"`
	ResetInSeconds int     `json:"reset_in_seconds"`
	ResetAt        string  `json:"reset_at,omitempty"`
}

// Quota returns an introspection handler letting callers inspect their
// own quota without consuming it. The endpoint bucket comes from the
// "endpoint" query parameter; identity follows the same derivation as
// the gate, with an optional "phone_number" query parameter standing in
// for the request body on GET requests. Nothing is ever recorded.
//
//	mux.Handle("GET /api/sms/quota", middleware.Quota(middleware.QuotaConfig{
//		Limiter:  limiter,
//		Policies: policies,
//	}))
func Quota(cfg QuotaConfig) http.Handler {
	if cfg.Limiter == nil {
		panic("quota handler: limiter is required")
	}
	if cfg.Policies == nil {
		cfg.Policies = ratelimiter.NewPolicies()
	}
	if cfg.KeyDeriver == nil {
		cfg.KeyDeriver = ratelimiter.DefaultKeyDeriver()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Query().Get("endpoint")
		if endpoint == "" {
			_ = response.Fail(w, response.ErrBadRequest.WithMessage("Missing required query parameter: endpoint."))
			return
		}

		payload := requestPayload(r, defaultMaxBodyBytes)
		if number := r.URL.Query().Get("phone_number"); number != "" {
			payload = map[string]any{"phone_number": number}
		}

		policy := cfg.Policies.Resolve(endpoint, ratelimiter.Override{})
		key := cfg.KeyDeriver.Derive(payload, endpoint, clientip.GetIP(r))

		info := cfg.Limiter.Info(r.Context(), key, endpoint, policy)

		status := quotaStatus{
			Endpoint:       endpoint,
			Limit:          info.Limit,
			WindowHours:    policy.Window.Hours(),
			AttemptsCount:  info.Count,
			Remaining:      info.Remaining(),
			IsRateLimited:  info.Limited(),
			ResetInSeconds: int(info.RetryAfter().Seconds()),
		}
		if !info.ResetAt.IsZero() {
			status.ResetAt = info.ResetAt.UTC().Format(time.RFC3339)
		}

		_ = response.OK(w, status)
	})
}
