// Package mongo provides production-ready MongoDB client initialization and health checking.
//
// This package wraps the official MongoDB Go driver with application-level retry logic
// optimized for cloud deployments, particularly MongoDB Atlas. Both New and NewWithDatabase
// implement retry logic to handle Atlas cold starts (5-8 seconds) and brief network
// interruptions that could otherwise cause application startup failures.
//
// Basic usage:
//
//	import (
//		"context"
//		"log"
//
//		"github.com/pefocdelemne/ratelimit/core/config"
//		"github.com/pefocdelemne/ratelimit/integration/database/mongo"
//		"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		var cfg mongo.Config
//		config.MustLoad(&cfg)
//
//		db, err := mongo.NewWithDatabase(ctx, cfg, "pfdl")
//		if err != nil {
//			log.Fatal("Failed to connect to database:", err)
//		}
//
//		store := ratelimiter.NewMongoStore(db)
//		if err := store.EnsureIndexes(ctx); err != nil {
//			log.Fatal("Failed to ensure indexes:", err)
//		}
//	}
//
// # Configuration
//
// Configuration is handled through environment variables via the Config struct.
// The default values are optimized for MongoDB Atlas deployments:
//
//	MONGODB_URL                 (required)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//
// # Health Checking
//
// The package provides a health check function for Kubernetes probes or HTTP endpoints:
//
//	healthCheck := mongo.Healthcheck(client)
//
//	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
//		if err := healthCheck(r.Context()); err != nil {
//			http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
//			return
//		}
//		w.WriteHeader(http.StatusOK)
//	})
//
// # Error Handling
//
// The package defines domain-specific errors:
//
//	ErrFailedToConnectToMongo - Returned when all retry attempts are exhausted
//	ErrHealthcheckFailed      - Returned when health check ping fails
//
// The New function includes connection verification via Ping to ensure the connection
// is actually usable before returning.
package mongo
