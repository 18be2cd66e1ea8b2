package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = map[reflect.Type]any{}

	loadDotEnv = sync.OnceFunc(func() {
		// Missing .env files are expected in production; real values come
		// from the process environment.
		_ = godotenv.Load()
	})
)

// Load parses environment variables into cfg, which must be a non-nil
// pointer to a struct. Each struct type is parsed once per process; later
// calls for the same type receive the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}

	loadDotEnv()

	mu.Lock()
	defer mu.Unlock()

	typ := reflect.TypeOf(*cfg)
	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	cache[typ] = *cfg
	return nil
}

// MustLoad is Load that panics on failure, intended for application
// startup paths where a missing required variable should abort boot.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
