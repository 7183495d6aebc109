package weather

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey and ErrEmptyLocation are caller mistakes. They are
	// returned as-is and never go through Classify.
	ErrMissingAPIKey = errors.New("weather api key is not configured")
	ErrEmptyLocation = errors.New("location name is empty")

	// ErrLocationNotFound and ErrServiceUnavailable let providers signal these
	// conditions when the HTTP status alone does not.
	ErrLocationNotFound   = errors.New("location not found")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI).
type Provider interface {
	Name() string
	FetchCurrent(ctx context.Context, name string) (CurrentReport, error)
	FetchForecast(ctx context.Context, name string) (ForecastReport, error)
}

// Cache is the contract the snapshot cache must satisfy.
type Cache interface {
	Get(key string) (WeatherSnapshot, bool)
	Set(key string, snapshot WeatherSnapshot)
	Purge() int
	Clear()
	Len() int
}

// ErrorReporter receives every classified fetch failure.
type ErrorReporter interface {
	Report(label string, res *ErrorResult)
}
