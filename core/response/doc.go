// Package response provides the JSON response envelope and structured
// HTTP errors shared by handlers and middleware.
//
// Every response carries a success flag so clients can branch without
// inspecting status codes:
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": {"code": "RATE_LIMIT_EXCEEDED", ...}}
//
// HTTPError implements the error interface and carries a machine-readable
// code, a human-readable message, and optional details. Predefined errors
// cover the statuses this module produces; copies can be customized with
// the With* methods:
//
//	err := response.ErrRateLimitExceeded.
//		WithMessage("Rate limit exceeded. Try again in 5 minutes.").
//		WithDetails(map[string]any{"endpoint": "sms_verify"})
//	response.Fail(w, err)
package response
