// Package clientip extracts real client IP addresses from HTTP requests.
//
// Behind proxies, load balancers, or CDNs the direct connection address is
// the address of the last hop, not the caller. This package checks proxy
// headers in priority order (CF-Connecting-IP, X-Forwarded-For, X-Real-IP)
// before falling back to RemoteAddr, which matters for any identity-keyed
// logic such as rate limiting or security logging.
//
//	ip := clientip.GetIP(r)
//	key := "ip:" + ip
//
// X-Forwarded-For may contain a comma-separated chain; the leftmost entry
// (the original client) is used. All candidates are validated with
// net.ParseIP and malformed values are silently skipped, so the function
// never panics and always returns a string.
package clientip
