// Package cli implements the weather-client command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-client/internal/app"
	"github.com/i474232898/weather-client/internal/config"
	"github.com/i474232898/weather-client/internal/location"
	"github.com/i474232898/weather-client/internal/weather"
)

// globalFlags holds the parsed values of all persistent (global) flags.
var globalFlags struct {
	Provider string
	APIKey   string
	DB       string
	Debug    bool
}

var rootCmd = &cobra.Command{
	Use:   "weather-client",
	Short: "Current weather and a 5-day forecast for any city",
	Long: `weather-client looks up current conditions and a 5-day forecast for a
named location using OpenWeatherMap (default) or WeatherAPI.

Quick start:
  export OPENWEATHER_API_KEY=...
  weather-client get London
  weather-client last
  weather-client serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

// buildDeps resolves config, applies flag overrides and constructs the
// dependency container. Callers must Close the result.
func buildDeps(cmd *cobra.Command) (*app.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if globalFlags.Provider != "" {
		cfg.Provider = globalFlags.Provider
	}
	if globalFlags.APIKey != "" {
		cfg.SetAPIKey(globalFlags.APIKey)
	}
	if globalFlags.DB != "" {
		cfg.DBPath = globalFlags.DB
	}
	if globalFlags.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return app.New(cfg, cmd.ErrOrStderr()), nil
}

// describeError turns errors into the text shown to the user.
func describeError(err error) string {
	var res *weather.ErrorResult
	var verr *location.ValidationError
	switch {
	case errors.As(err, &res):
		if res.Retryable {
			return res.Message + " (run the same command again, or type 'retry' in 'weather-client shell')"
		}
		return res.Message
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, weather.ErrMissingAPIKey):
		return "no API key configured: set OPENWEATHER_API_KEY or WEATHERAPI_API_KEY, or pass --api-key"
	}
	return err.Error()
}

func printErr(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", describeError(err))
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Provider, "provider", "",
		"weather provider: openweather|weatherapi (overrides env WEATHER_PROVIDER)")
	pf.StringVar(&globalFlags.APIKey, "api-key", "",
		"API key for the selected provider (overrides env)")
	pf.StringVar(&globalFlags.DB, "db", "",
		"path to the local database (default: ~/.weather-client/weather.db)")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"enable debug logging for this run")
}
