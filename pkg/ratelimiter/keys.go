package ratelimiter

import (
	"github.com/pefocdelemne/ratelimit/pkg/phone"
)

// Payload fields checked for a caller's phone number, in order.
var phoneFields = []string{"phone_number", "phone"}

// KeyDeriver builds rate-limit keys from request payloads. Endpoints in
// the identity-sensitive set key on the caller's phone number when one
// is present, since their abuse vector is per-identity rather than
// per-host; everything else keys on the client IP.
type KeyDeriver struct {
	identity map[string]struct{}
}

// NewKeyDeriver creates a deriver treating the given endpoints as
// identity-sensitive.
func NewKeyDeriver(identityEndpoints ...string) *KeyDeriver {
	identity := make(map[string]struct{}, len(identityEndpoints))
	for _, e := range identityEndpoints {
		identity[e] = struct{}{}
	}
	return &KeyDeriver{identity: identity}
}

// DefaultKeyDeriver treats the SMS verification buckets as
// identity-sensitive.
func DefaultKeyDeriver() *KeyDeriver {
	return NewKeyDeriver(EndpointSMSVerify, EndpointSMSConfirm)
}

// Derive returns the rate-limit key for a request. Identity-sensitive
// endpoints yield "phone:" plus the normalized number when the payload
// carries one; all other cases fall back to "ip:" plus the client
// address. A nil payload is valid and simply falls through to IP keying.
func (d *KeyDeriver) Derive(payload map[string]any, endpoint, clientIP string) string {
	if _, ok := d.identity[endpoint]; ok {
		if number := payloadPhone(payload); number != "" {
			return "phone:" + number
		}
	}
	return "ip:" + clientIP
}

func payloadPhone(payload map[string]any) string {
	for _, field := range phoneFields {
		raw, ok := payload[field].(string)
		if !ok {
			continue
		}
		if normalized := phone.Normalize(raw); normalized != "" {
			return normalized
		}
	}
	return ""
}
