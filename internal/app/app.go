// Package app wires together configuration, logging, persistence and the
// weather coordinator into a single Deps struct that commands receive at runtime.
package app

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-client/internal/config"
	"github.com/i474232898/weather-client/internal/errlog"
	"github.com/i474232898/weather-client/internal/prefs"
	"github.com/i474232898/weather-client/internal/store"
	"github.com/i474232898/weather-client/internal/weather"
	"github.com/i474232898/weather-client/internal/weather/providers"
)

// Deps holds all runtime dependencies injected into command Run functions.
type Deps struct {
	Config   *config.AppConfig
	Log      zerolog.Logger
	KV       *store.KV
	Prefs    *prefs.Store
	Errors   *errlog.Logger
	Provider weather.Provider
	Service  *weather.Service
}

// New builds a Deps from resolved config. Logs go to logOut.
//
// The local database is optional: if it cannot be opened the client still
// works, it just forgets the last location and keeps no error history.
func New(cfg *config.AppConfig, logOut io.Writer) *Deps {
	log := NewLogger(logOut, cfg.Debug)

	kv, err := store.OpenKV(cfg.DBPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("local store unavailable; preferences will not be saved")
		kv = nil
	}

	var p *prefs.Store
	var recs errlog.RecordStore
	if kv != nil {
		p = prefs.New(kv, log)
		recs = kv
	} else {
		p = prefs.New(nil, log)
	}

	if !cfg.Debug && p.DebugLogging() {
		cfg.Debug = true
		log = log.Level(zerolog.DebugLevel)
	}

	errs := errlog.New(log, recs, errlog.WithDebug(p.DebugLogging))

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := NewProvider(cfg, client)

	cache := store.NewMemoryCache(cfg.CacheTTL)
	svc := weather.NewService(cache, provider,
		weather.WithTimeout(cfg.HTTPTimeout),
		weather.WithReporter(errs),
	)

	log.Debug().
		Str("provider", provider.Name()).
		Dur("timeout", cfg.HTTPTimeout).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("dependencies ready")

	return &Deps{
		Config:   cfg,
		Log:      log,
		KV:       kv,
		Prefs:    p,
		Errors:   errs,
		Provider: provider,
		Service:  svc,
	}
}

// NewProvider returns the adapter selected by cfg.Provider.
func NewProvider(cfg *config.AppConfig, client *http.Client) weather.Provider {
	opts := []providers.Option{providers.WithRate(cfg.RateLimit)}
	if cfg.Provider == config.ProviderWeatherAPI {
		return providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, opts...)
	}
	return providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey, opts...)
}

// NewLogger returns a timestamped zerolog logger at info level, or debug
// level when debug is set.
func NewLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// Close flushes pending writes and releases the local store.
func (d *Deps) Close() error {
	d.Errors.Close()
	d.Prefs.Close()
	if d.KV != nil {
		return d.KV.Close()
	}
	return nil
}
