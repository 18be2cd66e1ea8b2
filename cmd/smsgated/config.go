package main

import "time"

// appConfig is the startup configuration of the SMS gate service.
// Backend-specific settings (MONGODB_*, REDIS_*) are loaded by the
// selected store's integration package, and policy overrides
// (RATE_LIMIT_<ENDPOINT>_LIMIT / _WINDOW) by the policy table.
type appConfig struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"SMSGATED_ADDR" envDefault:":8080"`
	// Store selects the rate-limit backend: memory, mongo or redis.
	Store string `env:"SMSGATED_STORE" envDefault:"memory"`
	// MongoDatabase names the database holding the rate_limits collection.
	MongoDatabase string `env:"SMSGATED_MONGO_DATABASE" envDefault:"pfdl"`
	// FailClosed denies requests instead of allowing them when the
	// backing store is unreachable.
	FailClosed bool `env:"SMSGATED_FAIL_CLOSED" envDefault:"false"`
	// LogJSON switches log output from text to JSON.
	LogJSON bool `env:"SMSGATED_LOG_JSON" envDefault:"true"`

	ReadTimeout     time.Duration `env:"SMSGATED_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SMSGATED_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SMSGATED_IDLE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SMSGATED_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

const (
	storeMemory = "memory"
	storeMongo  = "mongo"
	storeRedis  = "redis"
)
