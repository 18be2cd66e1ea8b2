package ratelimiter

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Well-known endpoint buckets. Endpoints name logical policy groups, not
// physical routes; several routes may share one bucket.
const (
	EndpointSMSVerify  = "sms_verify"
	EndpointSMSConfirm = "sms_confirm"
)

// Policy is the effective rate limit for one endpoint bucket.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Override carries a partial policy. Zero fields are "unset" and leave
// the lower-precedence layer's value in place; Limit and Window override
// independently.
type Override struct {
	Limit  int
	Window time.Duration
}

func (o Override) apply(p Policy) Policy {
	if o.Limit > 0 {
		p.Limit = o.Limit
	}
	if o.Window > 0 {
		p.Window = o.Window
	}
	return p
}

// Policies resolves effective policies per endpoint. Resolution layers,
// lowest precedence first: the generic fallback, the built-in default
// for the endpoint name, the startup override (typically populated from
// the environment), and finally the call-site override passed to
// Resolve.
//
// The override map is populated once at construction; nothing is read
// from the environment on the request path.
type Policies struct {
	fallback  Policy
	defaults  map[string]Policy
	overrides map[string]Override
}

// PoliciesOption configures a Policies table.
type PoliciesOption func(*Policies)

// WithFallback replaces the generic default applied to endpoints with no
// named entry.
func WithFallback(p Policy) PoliciesOption {
	return func(ps *Policies) {
		if p.Limit > 0 && p.Window > 0 {
			ps.fallback = p
		}
	}
}

// WithDefault sets the built-in default for a named endpoint.
func WithDefault(endpoint string, p Policy) PoliciesOption {
	return func(ps *Policies) {
		if endpoint != "" && p.Limit > 0 && p.Window > 0 {
			ps.defaults[endpoint] = p
		}
	}
}

// WithOverride sets a startup override for a named endpoint.
func WithOverride(endpoint string, o Override) PoliciesOption {
	return func(ps *Policies) {
		if endpoint != "" {
			ps.overrides[endpoint] = o
		}
	}
}

// WithEnvOverrides reads RATE_LIMIT_<NAME>_LIMIT and
// RATE_LIMIT_<NAME>_WINDOW (seconds) for each listed endpoint, where
// <NAME> is the endpoint name uppercased. Unparseable values are
// silently ignored; a configuration typo must not break the request
// path. Values are read once, at construction.
func WithEnvOverrides(endpoints ...string) PoliciesOption {
	return func(ps *Policies) {
		for _, endpoint := range endpoints {
			o := envOverride(endpoint)
			if o == (Override{}) {
				continue
			}
			prev := ps.overrides[endpoint]
			if o.Limit > 0 {
				prev.Limit = o.Limit
			}
			if o.Window > 0 {
				prev.Window = o.Window
			}
			ps.overrides[endpoint] = prev
		}
	}
}

// NewPolicies builds a policy table with the built-in defaults for the
// SMS verification buckets: verification sends are tight (5 per hour),
// confirmations looser (10 per hour) since a legitimate session retries
// codes more often than it requests them. Unknown endpoints fall back to
// 10 per hour.
func NewPolicies(opts ...PoliciesOption) *Policies {
	ps := &Policies{
		fallback: Policy{Limit: 10, Window: time.Hour},
		defaults: map[string]Policy{
			EndpointSMSVerify:  {Limit: 5, Window: time.Hour},
			EndpointSMSConfirm: {Limit: 10, Window: time.Hour},
		},
		overrides: map[string]Override{},
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// Resolve computes the effective policy for an endpoint, applying the
// call-site override last.
func (ps *Policies) Resolve(endpoint string, call Override) Policy {
	pol := ps.fallback
	if d, ok := ps.defaults[endpoint]; ok {
		pol = d
	}
	if o, ok := ps.overrides[endpoint]; ok {
		pol = o.apply(pol)
	}
	return call.apply(pol)
}

func envOverride(endpoint string) Override {
	name := strings.ToUpper(endpoint)

	var o Override
	if v, ok := os.LookupEnv("RATE_LIMIT_" + name + "_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			o.Limit = n
		}
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_" + name + "_WINDOW"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			o.Window = time.Duration(n) * time.Second
		}
	}
	return o
}
