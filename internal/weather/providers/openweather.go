package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weather-client/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	apiKey string
	req    *requester
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	r := newRequester("openweather", openWeatherBaseURL, client, opts...)
	r.parseError = parseOpenWeatherError
	return &OpenWeatherProvider{apiKey: apiKey, req: r}
}

func (p *OpenWeatherProvider) Name() string {
	return "openweathermap"
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrent struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Weather []owmCondition `json:"weather"`
}

type owmForecast struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, name string) (weather.CurrentReport, error) {
	q, err := p.query(name)
	if err != nil {
		return weather.CurrentReport{}, err
	}

	var payload owmCurrent
	if err := p.req.getJSON(ctx, "weather", q, &payload); err != nil {
		return weather.CurrentReport{}, err
	}

	cond := firstCondition(payload.Weather)
	return weather.CurrentReport{
		Location: weather.Location{Name: payload.Name, Country: payload.Sys.Country},
		Current: weather.Current{
			TemperatureC: weather.Round(payload.Main.Temp),
			Condition:    cond.Main,
			Description:  cond.Description,
			Icon:         cond.Icon,
			HumidityPct:  weather.Round(payload.Main.Humidity),
			WindSpeedKmh: weather.WindKmh(payload.Wind.Speed),
		},
	}, nil
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, name string) (weather.ForecastReport, error) {
	q, err := p.query(name)
	if err != nil {
		return weather.ForecastReport{}, err
	}

	var payload owmForecast
	if err := p.req.getJSON(ctx, "forecast", q, &payload); err != nil {
		return weather.ForecastReport{}, err
	}

	samples := make([]weather.Sample, 0, len(payload.List))
	for _, item := range payload.List {
		cond := firstCondition(item.Weather)
		samples = append(samples, weather.Sample{
			Time:      time.Unix(item.Dt, 0).UTC(),
			TempC:     item.Main.Temp,
			Condition: cond.Main,
			Icon:      cond.Icon,
		})
	}

	return weather.ForecastReport{
		Location: weather.Location{Name: payload.City.Name, Country: payload.City.Country},
		Days:     weather.DailyForecast(samples, weather.MaxForecastDays),
	}, nil
}

func (p *OpenWeatherProvider) query(name string) (url.Values, error) {
	if p.apiKey == "" {
		return nil, weather.ErrMissingAPIKey
	}
	loc, err := requireLocation(name)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("q", loc)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	return values, nil
}

func firstCondition(items []owmCondition) owmCondition {
	if len(items) == 0 {
		return owmCondition{}
	}
	return items[0]
}

// parseOpenWeatherError reads {"cod": ..., "message": "..."}. cod is a string
// on some endpoints and a number on others, so it is ignored.
func parseOpenWeatherError(status int, body []byte) *HTTPError {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	e := &HTTPError{StatusCode: status, Message: payload.Message}
	if status == http.StatusNotFound {
		e.err = weather.ErrLocationNotFound
	}
	return e
}
