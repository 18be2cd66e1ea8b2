// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/pefocdelemne/ratelimit/core/config"
//
//	type StoreConfig struct {
//		Driver     string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
//		Collection string `env:"RATE_LIMIT_COLLECTION" envDefault:"rate_limits"`
//	}
//
//	func main() {
//		var cfg StoreConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 StoreConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 StoreConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently, so splitting configuration
// per subsystem (store, server, policies) keeps loading cheap and
// side-effect free.
package config
