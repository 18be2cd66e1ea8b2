// Package logger provides structured logging utilities built on Go's
// standard slog package: a small factory for configured loggers and a set
// of attribute helpers for common logging patterns.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(slog.String("service", "smsgate")),
//	)
//
//	log.Warn("rate limit exceeded",
//		logger.Component("middleware"),
//		logger.Endpoint("sms_verify"),
//		logger.RateLimitKey("phone:****4567"),
//	)
//
// # Attribute Helpers
//
// Helpers follow the empty-Attr pattern: passing a nil error or empty
// value yields a zero slog.Attr, which slog drops silently. This keeps
// call sites free of nil checks:
//
//	log.Warn("store write failed", logger.Error(err))
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithOutput(&buf))
//	log.Info("hello", logger.Component("test"))
//	assert.Contains(t, buf.String(), "component=test")
package logger
