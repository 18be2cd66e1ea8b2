package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers checked in priority order.
var headers = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP extracts the client IP address from the request.
//
// Proxy headers are consulted before the direct connection address. For
// X-Forwarded-For the first (leftmost) entry is taken under a single-hop
// trust model; the proxy chain is not validated. Candidates are parsed
// and normalized with net.ParseIP, and invalid values are skipped. When
// no header yields a valid address the function falls back to
// RemoteAddr, returned as-is if it cannot be split into host and port.
func GetIP(r *http.Request) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For may hold "client, proxy1, proxy2".
		if first, _, found := strings.Cut(v, ","); found {
			v = first
		}
		if ip := parse(v); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if ip := parse(r.RemoteAddr); ip != "" {
			return ip
		}
		return r.RemoteAddr
	}
	if ip := parse(host); ip != "" {
		return ip
	}
	return host
}

// parse validates and normalizes a candidate address. Returns an empty
// string for anything net.ParseIP rejects and for the unspecified
// address 0.0.0.0, which signals "no usable client IP".
func parse(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
