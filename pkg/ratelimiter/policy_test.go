package ratelimiter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
)

func TestPoliciesBuiltinDefaults(t *testing.T) {
	t.Parallel()

	ps := ratelimiter.NewPolicies()

	verify := ps.Resolve(ratelimiter.EndpointSMSVerify, ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 5, Window: time.Hour}, verify)

	confirm := ps.Resolve(ratelimiter.EndpointSMSConfirm, ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 10, Window: time.Hour}, confirm)

	unknown := ps.Resolve("password_reset", ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 10, Window: time.Hour}, unknown)
}

func TestPoliciesLayeredPrecedence(t *testing.T) {
	t.Parallel()

	// Built-in {10, 3600s}, startup override raises only the limit,
	// call-site override shrinks only the window. Fields must resolve
	// independently across layers.
	ps := ratelimiter.NewPolicies(
		ratelimiter.WithDefault("test", ratelimiter.Policy{Limit: 10, Window: time.Hour}),
		ratelimiter.WithOverride("test", ratelimiter.Override{Limit: 20}),
	)

	resolved := ps.Resolve("test", ratelimiter.Override{Window: 120 * time.Second})
	assert.Equal(t, ratelimiter.Policy{Limit: 20, Window: 120 * time.Second}, resolved)

	// Without the call-site layer the startup override still applies.
	resolved = ps.Resolve("test", ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 20, Window: time.Hour}, resolved)
}

func TestPoliciesCallSiteWins(t *testing.T) {
	t.Parallel()

	ps := ratelimiter.NewPolicies(
		ratelimiter.WithOverride(ratelimiter.EndpointSMSVerify, ratelimiter.Override{Limit: 7, Window: 30 * time.Minute}),
	)

	resolved := ps.Resolve(ratelimiter.EndpointSMSVerify, ratelimiter.Override{Limit: 2})
	assert.Equal(t, 2, resolved.Limit)
	assert.Equal(t, 30*time.Minute, resolved.Window)
}

func TestPoliciesEnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_SMS_VERIFY_LIMIT", "20")
	t.Setenv("RATE_LIMIT_SMS_VERIFY_WINDOW", "120")

	ps := ratelimiter.NewPolicies(
		ratelimiter.WithEnvOverrides(ratelimiter.EndpointSMSVerify, ratelimiter.EndpointSMSConfirm),
	)

	verify := ps.Resolve(ratelimiter.EndpointSMSVerify, ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 20, Window: 120 * time.Second}, verify)

	// No env set for confirm: built-in default stands.
	confirm := ps.Resolve(ratelimiter.EndpointSMSConfirm, ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 10, Window: time.Hour}, confirm)
}

func TestPoliciesEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("RATE_LIMIT_SMS_VERIFY_LIMIT", "not-a-number")
	t.Setenv("RATE_LIMIT_SMS_VERIFY_WINDOW", "7200")

	ps := ratelimiter.NewPolicies(
		ratelimiter.WithEnvOverrides(ratelimiter.EndpointSMSVerify),
	)

	// The unparseable limit falls back to the built-in; the valid
	// window still applies.
	verify := ps.Resolve(ratelimiter.EndpointSMSVerify, ratelimiter.Override{})
	assert.Equal(t, ratelimiter.Policy{Limit: 5, Window: 2 * time.Hour}, verify)
}

func TestPoliciesEnvOverridesNegativeIgnored(t *testing.T) {
	t.Setenv("RATE_LIMIT_SMS_CONFIRM_LIMIT", "-3")

	ps := ratelimiter.NewPolicies(
		ratelimiter.WithEnvOverrides(ratelimiter.EndpointSMSConfirm),
	)

	confirm := ps.Resolve(ratelimiter.EndpointSMSConfirm, ratelimiter.Override{})
	assert.Equal(t, 10, confirm.Limit)
}
