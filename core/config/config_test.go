package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefocdelemne/ratelimit/core/config"
)

type serverConfig struct {
	Addr    string `env:"TEST_CONFIG_ADDR" envDefault:":8080"`
	Debug   bool   `env:"TEST_CONFIG_DEBUG" envDefault:"false"`
	Retries int    `env:"TEST_CONFIG_RETRIES" envDefault:"3"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CONFIG_MISSING_SECRET,required"`
}

func TestLoadDefaults(t *testing.T) {
	var cfg serverConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 3, cfg.Retries)
}

func TestLoadCachesPerType(t *testing.T) {
	var first serverConfig
	require.NoError(t, config.Load(&first))

	// A changed environment must not affect subsequent loads of the
	// same type; the first parse wins for the process lifetime.
	t.Setenv("TEST_CONFIG_ADDR", ":9999")

	var second serverConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second)
}

func TestLoadRequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_CONFIG_MISSING_SECRET")
}

func TestMustLoadPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadNilTarget(t *testing.T) {
	var cfg *serverConfig
	assert.Error(t, config.Load(cfg))
}
