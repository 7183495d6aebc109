package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenWeather = "openweather"
	ProviderWeatherAPI  = "weatherapi"
)

type AppConfig struct {
	// Provider selects the upstream weather API.
	Provider string

	OpenWeatherAPIKey string
	WeatherAPIKey     string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// CacheTTL is how long a resolved snapshot is served from memory.
	CacheTTL time.Duration

	// RateLimit is the outbound request budget per second.
	RateLimit float64

	// DBPath is the bbolt file holding preferences and the error log.
	DBPath string

	Port string

	// RefreshInterval controls how often `serve` refreshes the last location.
	RefreshInterval time.Duration

	Debug bool
}

// Load reads configuration from environment (and an optional .env file) with
// sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg := &AppConfig{}

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", ProviderOpenWeather))
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	rateStr := getenvDefault("RATE_LIMIT", "5")
	cfg.RateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}

	cfg.DBPath = getenvDefault("DB_PATH", defaultDBPath())
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Debug = getenvBool("WEATHER_DEBUG", false)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that may also be set from CLI flags.
func (c *AppConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenWeather, ProviderWeatherAPI:
	default:
		return fmt.Errorf("unknown WEATHER_PROVIDER %q (want %s or %s)", c.Provider, ProviderOpenWeather, ProviderWeatherAPI)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	return nil
}

// APIKey returns the credential for the selected provider.
func (c *AppConfig) APIKey() string {
	if c.Provider == ProviderWeatherAPI {
		return c.WeatherAPIKey
	}
	return c.OpenWeatherAPIKey
}

// SetAPIKey overrides the credential for the selected provider.
func (c *AppConfig) SetAPIKey(key string) {
	if c.Provider == ProviderWeatherAPI {
		c.WeatherAPIKey = key
		return
	}
	c.OpenWeatherAPIKey = key
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "weather.db"
	}
	return filepath.Join(home, ".weather-client", "weather.db")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
