package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	// Run from an empty directory so no stray .env file is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, k := range []string{
		"WEATHER_PROVIDER", "OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "HTTP_TIMEOUT",
		"CACHE_TTL", "RATE_LIMIT", "DB_PATH", "PORT", "REFRESH_INTERVAL", "WEATHER_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenWeather, cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, "8080", cfg.Port)
	assert.NotEmpty(t, cfg.DBPath)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.APIKey())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_PROVIDER", "WeatherAPI")
	t.Setenv("WEATHERAPI_API_KEY", "wk")
	t.Setenv("OPENWEATHER_API_KEY", "ok")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("RATE_LIMIT", "0.5")
	t.Setenv("DB_PATH", "/tmp/w.db")
	t.Setenv("WEATHER_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderWeatherAPI, cfg.Provider)
	assert.Equal(t, "wk", cfg.APIKey())
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0.5, cfg.RateLimit)
	assert.Equal(t, "/tmp/w.db", cfg.DBPath)
	assert.True(t, cfg.Debug)

	cfg.SetAPIKey("override")
	assert.Equal(t, "override", cfg.WeatherAPIKey)
	assert.Equal(t, "ok", cfg.OpenWeatherAPIKey)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string][2]string{
		"bad duration": {"HTTP_TIMEOUT", "soon"},
		"zero ttl":     {"CACHE_TTL", "0s"},
		"bad rate":     {"RATE_LIMIT", "fast"},
		"bad provider": {"WEATHER_PROVIDER", "darksky"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
