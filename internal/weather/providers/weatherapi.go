package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-client/internal/weather"
)

const (
	weatherAPIBaseURL = "https://api.weatherapi.com/v1"

	// weatherAPINoMatch is the error code WeatherAPI returns with a 400 when
	// q does not match any location.
	weatherAPINoMatch = 1006
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	apiKey string
	req    *requester
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	r := newRequester("weatherapi", weatherAPIBaseURL, client, opts...)
	r.parseError = parseWeatherAPIError
	return &WeatherAPIProvider{apiKey: apiKey, req: r}
}

func (p *WeatherAPIProvider) Name() string {
	return "weatherapi"
}

type wapiLocation struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type wapiCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type wapiCurrent struct {
	Location wapiLocation `json:"location"`
	Current  struct {
		TempC     float64       `json:"temp_c"`
		Humidity  float64       `json:"humidity"`
		WindKph   float64       `json:"wind_kph"`
		Condition wapiCondition `json:"condition"`
	} `json:"current"`
}

type wapiForecast struct {
	Location wapiLocation `json:"location"`
	Forecast struct {
		Forecastday []struct {
			Hour []struct {
				TimeEpoch int64         `json:"time_epoch"`
				TempC     float64       `json:"temp_c"`
				Condition wapiCondition `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, name string) (weather.CurrentReport, error) {
	q, err := p.query(name)
	if err != nil {
		return weather.CurrentReport{}, err
	}

	var payload wapiCurrent
	if err := p.req.getJSON(ctx, "current.json", q, &payload); err != nil {
		return weather.CurrentReport{}, err
	}

	c := payload.Current
	return weather.CurrentReport{
		Location: weather.Location(payload.Location),
		Current: weather.Current{
			TemperatureC: weather.Round(c.TempC),
			Condition:    c.Condition.Text,
			Description:  c.Condition.Text,
			Icon:         c.Condition.Icon,
			HumidityPct:  weather.Round(c.Humidity),
			WindSpeedKmh: weather.Round(c.WindKph),
		},
	}, nil
}

// FetchForecast flattens the hourly samples of each forecast day and runs
// them through the same daily aggregation as other providers.
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, name string) (weather.ForecastReport, error) {
	q, err := p.query(name)
	if err != nil {
		return weather.ForecastReport{}, err
	}
	q.Set("days", strconv.Itoa(weather.MaxForecastDays))

	var payload wapiForecast
	if err := p.req.getJSON(ctx, "forecast.json", q, &payload); err != nil {
		return weather.ForecastReport{}, err
	}

	var samples []weather.Sample
	for _, day := range payload.Forecast.Forecastday {
		for _, h := range day.Hour {
			samples = append(samples, weather.Sample{
				Time:      time.Unix(h.TimeEpoch, 0).UTC(),
				TempC:     h.TempC,
				Condition: h.Condition.Text,
				Icon:      h.Condition.Icon,
			})
		}
	}

	return weather.ForecastReport{
		Location: weather.Location(payload.Location),
		Days:     weather.DailyForecast(samples, weather.MaxForecastDays),
	}, nil
}

func (p *WeatherAPIProvider) query(name string) (url.Values, error) {
	if p.apiKey == "" {
		return nil, weather.ErrMissingAPIKey
	}
	loc, err := requireLocation(name)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", loc)
	return values, nil
}

// parseWeatherAPIError reads {"error": {"code": 1006, "message": "..."}}.
func parseWeatherAPIError(status int, body []byte) *HTTPError {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	e := &HTTPError{StatusCode: status, Code: payload.Error.Code, Message: payload.Error.Message}
	if e.Code == weatherAPINoMatch {
		e.err = weather.ErrLocationNotFound
	}
	return e
}
