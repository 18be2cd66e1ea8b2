package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefocdelemne/ratelimit/core/logger"
	"github.com/pefocdelemne/ratelimit/core/response"
	"github.com/pefocdelemne/ratelimit/middleware"
	"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = response.OK(w, map[string]string{"status": "ok"})
	})
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:54321"
	return req
}

func testPolicies(limit int, window time.Duration) *ratelimiter.Policies {
	return ratelimiter.NewPolicies(
		ratelimiter.WithDefault(ratelimiter.EndpointSMSVerify, ratelimiter.Policy{Limit: limit, Window: window}),
	)
}

func TestRateLimitAllowThenDeny(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint:   ratelimiter.EndpointSMSVerify,
		Limiter:    limiter,
		Policies:   testPolicies(2, time.Hour),
		SetHeaders: true,
	})
	h := gate(okHandler())

	body := `{"phone_number": "+40712345678"}`

	for i, wantRemaining := range []string{"2", "1"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, postJSON("/api/sms/verify", body))

		require.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, wantRemaining, w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "3600", w.Header().Get("X-RateLimit-Window"))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, w.Header().Get("X-RateLimit-Reset"), w.Header().Get("Retry-After"))
}

func TestRateLimitRejectionEnvelope(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(1, time.Hour),
	})
	h := gate(okHandler())

	body := `{"phone_number": "+40712345678"}`

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)
	assert.Contains(t, env.Error.Message, "Try again in")
	assert.Contains(t, env.Error.Message, "minutes")

	details := env.Error.Details
	assert.Equal(t, "sms_verify", details["endpoint"])
	assert.EqualValues(t, 1, details["limit"])
	assert.EqualValues(t, 1, details["window_hours"])
	assert.EqualValues(t, 1, details["attempts_count"])

	resetSeconds, ok := details["reset_in_seconds"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 3600, resetSeconds, 5)
	assert.EqualValues(t, 60, details["reset_in_minutes"])

	resetAt, ok := details["reset_at"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, resetAt)
	assert.NoError(t, err)
}

func TestRateLimitMasksPhoneInLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(1, time.Hour),
		Logger:   log,
	})
	h := gate(okHandler())

	body := `{"phone_number": "+15551231234"}`

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, buf.String(), "allowed requests are not logged at warn level")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	out := buf.String()
	assert.Contains(t, out, "rate limit exceeded")
	assert.Contains(t, out, "****1234")
	assert.NotContains(t, out, "+15551231234")
	assert.NotContains(t, out, "15551231234")
}

func TestRateLimitPhoneScoping(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(1, time.Hour),
	})
	h := gate(okHandler())

	// Two different phone numbers from the same IP get separate quotas.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", `{"phone_number": "+40712345678"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", `{"phone_number": "+40798765432"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	// Same phone through a different IP shares the quota.
	req := postJSON("/api/sms/verify", `{"phone_number": "+40712345678"}`)
	req.RemoteAddr = "198.51.100.1:1234"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitEndpointScoping(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	policies := ratelimiter.NewPolicies(
		ratelimiter.WithDefault(ratelimiter.EndpointSMSVerify, ratelimiter.Policy{Limit: 1, Window: time.Hour}),
		ratelimiter.WithDefault(ratelimiter.EndpointSMSConfirm, ratelimiter.Policy{Limit: 1, Window: time.Hour}),
	)

	verify := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: policies,
	})(okHandler())
	confirm := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSConfirm,
		Limiter:  limiter,
		Policies: policies,
	})(okHandler())

	body := `{"phone_number": "+40712345678"}`

	w := httptest.NewRecorder()
	verify.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusOK, w.Code)

	// Exhausting sms_verify must not affect sms_confirm for the same caller.
	w = httptest.NewRecorder()
	confirm.ServeHTTP(w, postJSON("/api/sms/confirm", body))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	verify.ServeHTTP(w, postJSON("/api/sms/verify", body))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitMalformedBodyFallsBackToIP(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(1, time.Hour),
	})
	h := gate(okHandler())

	// Parse errors do not reject the request at the gate.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", `{not json`))
	assert.Equal(t, http.StatusOK, w.Code)

	// The fallback key is the IP, so a second malformed request from
	// the same address is over quota.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", `also not json`))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitBodyRestoredForHandler(t *testing.T) {
	t.Parallel()

	var seen string
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(b)
		w.WriteHeader(http.StatusOK)
	})

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(5, time.Hour),
	})

	body := `{"phone_number": "+40712345678", "code": "1234"}`
	w := httptest.NewRecorder()
	gate(echo).ServeHTTP(w, postJSON("/api/sms/verify", body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, seen)
}

func TestRateLimitSkip(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(1, time.Hour),
		Skip: func(r *http.Request) bool {
			return r.Header.Get("X-Internal-Healthcheck") == "true"
		},
		SetHeaders: true,
	})
	h := gate(okHandler())

	body := `{"phone_number": "+40712345678"}`

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	req := postJSON("/api/sms/verify", body)
	req.Header.Set("X-Internal-Healthcheck", "true")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"), "skipped requests get no rate limit headers")
}

func TestRateLimitFailOpenOnDeadStore(t *testing.T) {
	t.Parallel()

	// Engine constructed without a store: permanently degraded.
	limiter := ratelimiter.New(nil)
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limiter:  limiter,
		Policies: testPolicies(1, time.Hour),
	})
	h := gate(okHandler())

	body := `{"phone_number": "+40712345678"}`
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, postJSON("/api/sms/verify", body))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitCallSiteOverride(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.New(ratelimiter.NewMemoryStore())
	gate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint: ratelimiter.EndpointSMSVerify,
		Limit:    1, // overrides the resolved limit of 5
		Limiter:  limiter,
		Policies: testPolicies(5, time.Hour),
	})
	h := gate(okHandler())

	body := `{"phone_number": "+40712345678"}`

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("/api/sms/verify", body))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitPanicsOnMissingConfig(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.RateLimit(middleware.RateLimitConfig{Endpoint: "x"})
	})
	assert.Panics(t, func() {
		middleware.RateLimit(middleware.RateLimitConfig{Limiter: ratelimiter.New(nil)})
	})
}
