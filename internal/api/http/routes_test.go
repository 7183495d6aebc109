package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-client/internal/errlog"
	"github.com/i474232898/weather-client/internal/location"
	"github.com/i474232898/weather-client/internal/weather"
)

type stubService struct {
	snapshot weather.WeatherSnapshot
	err      error
	cleared  bool
	lastRaw  string
}

func (s *stubService) Resolve(_ context.Context, raw string) (weather.WeatherSnapshot, error) {
	s.lastRaw = raw
	if _, err := location.Parse(raw); err != nil {
		return weather.WeatherSnapshot{}, err
	}
	return s.snapshot, s.err
}

func (s *stubService) Retry(ctx context.Context) (weather.WeatherSnapshot, error) {
	if s.lastRaw == "" {
		return weather.WeatherSnapshot{}, weather.ErrNoLastQuery
	}
	return s.Resolve(ctx, s.lastRaw)
}

func (s *stubService) ClearCache()          { s.cleared = true }
func (s *stubService) Stats() weather.Stats { return weather.Stats{CachedLocations: 1, Fetches: 3} }

type stubLocations struct{ last string }

func (l *stubLocations) SaveLastLocation(name string) { l.last = name }
func (l *stubLocations) LastLocation() string         { return l.last }

type stubErrors []errlog.Record

func (e stubErrors) Records() ([]errlog.Record, error) { return e, nil }

func newTestApp(svc *stubService, locs *stubLocations, errs stubErrors) *fiber.App {
	app := NewApp(zerolog.Nop(), false)
	RegisterRoutes(app, svc, locs, errs)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app := newTestApp(&stubService{}, &stubLocations{}, nil)
	status, body := doJSON(t, app, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGetWeather(t *testing.T) {
	svc := &stubService{snapshot: weather.WeatherSnapshot{
		Location: weather.Location{Name: "London", Country: "GB"},
		Current:  weather.Current{TemperatureC: 18},
	}}
	locs := &stubLocations{}
	app := newTestApp(svc, locs, nil)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/weather?q=london")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "london", svc.lastRaw)
	assert.Equal(t, "London", locs.last)

	current := body["current"].(map[string]any)
	assert.EqualValues(t, 18, current["temperatureC"])
}

func TestGetWeatherValidation(t *testing.T) {
	app := newTestApp(&stubService{}, &stubLocations{}, nil)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/weather")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, true, body["error"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/weather?q=new%20%20york")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["message"])
}

func TestGetWeatherClassifiedErrors(t *testing.T) {
	tests := []struct {
		kind   weather.Kind
		status int
	}{
		{weather.KindNotFound, http.StatusNotFound},
		{weather.KindTimeout, http.StatusGatewayTimeout},
		{weather.KindServiceUnavailable, http.StatusServiceUnavailable},
		{weather.KindUnauthorized, http.StatusBadGateway},
		{weather.KindNetwork, http.StatusBadGateway},
		{weather.KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			svc := &stubService{err: &weather.ErrorResult{Kind: tt.kind, Message: "msg", Retryable: true}}
			locs := &stubLocations{}
			app := newTestApp(svc, locs, nil)

			status, body := doJSON(t, app, http.MethodGet, "/api/v1/weather?q=Paris")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, string(tt.kind), body["kind"])
			assert.Equal(t, "msg", body["message"])
			assert.Equal(t, true, body["retryable"])
			assert.Empty(t, locs.last, "failures must not be persisted")
		})
	}
}

func TestRetry(t *testing.T) {
	svc := &stubService{snapshot: weather.WeatherSnapshot{Location: weather.Location{Name: "Oslo"}}}
	app := newTestApp(svc, &stubLocations{}, nil)

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/weather/retry")
	assert.Equal(t, http.StatusNotFound, status)

	svc.lastRaw = "Oslo"
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/weather/retry")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Oslo", body["location"].(map[string]any)["name"])
}

func TestLastLocation(t *testing.T) {
	locs := &stubLocations{}
	app := newTestApp(&stubService{}, locs, nil)

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/location/last")
	assert.Equal(t, http.StatusNotFound, status)

	locs.last = "Rome"
	status, body := doJSON(t, app, http.MethodGet, "/api/v1/location/last")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Rome", body["location"])
}

func TestErrorsAndCache(t *testing.T) {
	svc := &stubService{}
	errs := stubErrors{{ID: "1", Context: "resolve Paris", Kind: "timeout"}}
	app := newTestApp(svc, &stubLocations{}, errs)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/errors")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["errors"], 1)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/stats")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["fetches"])

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, svc.cleared)
}
