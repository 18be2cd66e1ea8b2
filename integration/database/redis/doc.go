// Package redis provides production-ready Redis client initialization and health checking.
//
// This package wraps the go-redis client with connection validation and retry logic
// for reliable Redis connectivity. It supports both Redis and Redis-compatible services
// with proper URL validation and fixed-interval retries for handling transient network
// issues during startup.
//
// Connection establishment validates the Redis URL format, attempts connection with
// retries, and verifies connectivity with a ping operation before returning the client.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment variable mapping:
//
//	REDIS_URL              (required, default: redis://localhost:6379/0)
//	REDIS_RETRY_ATTEMPTS   (default: 3)
//	REDIS_RETRY_INTERVAL   (default: 5s)
//	REDIS_CONNECT_TIMEOUT  (default: 30s)
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
//
// # Usage Example
//
//	import (
//		"context"
//		"log"
//
//		"github.com/pefocdelemne/ratelimit/core/config"
//		"github.com/pefocdelemne/ratelimit/integration/database/redis"
//		"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		var cfg redis.Config
//		config.MustLoad(&cfg)
//
//		client, err := redis.Connect(ctx, cfg)
//		if err != nil {
//			log.Fatal("Failed to connect to Redis:", err)
//		}
//		defer client.Close()
//
//		store := ratelimiter.NewRedisStore(client)
//		limiter := ratelimiter.New(store)
//		_ = limiter
//	}
//
// # Health Checking
//
// The package provides a health check function suitable for Kubernetes probes
// or HTTP health endpoints:
//
//	healthCheck := redis.Healthcheck(client)
//
//	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
//		if err := healthCheck(r.Context()); err != nil {
//			http.Error(w, "Redis unhealthy", http.StatusServiceUnavailable)
//			return
//		}
//		w.WriteHeader(http.StatusOK)
//	})
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using errors.Is():
//
//	ErrEmptyConnectionURL           - Returned when the connection URL is empty
//	ErrFailedToParseRedisConnString - Returned when the URL cannot be parsed
//	ErrRedisNotReady                - Returned when all retry attempts are exhausted
//	ErrHealthcheckFailed            - Returned when the health check ping fails
package redis
