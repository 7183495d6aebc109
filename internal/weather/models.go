package weather

import (
	"fmt"
	"strings"
	"time"
)

// MaxForecastDays is the number of daily entries kept in a snapshot.
const MaxForecastDays = 5

const iconURLTemplate = "https://openweathermap.org/img/wn/%s@2x.png"

// Location is the place a snapshot was resolved to by the provider.
type Location struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Current holds the present conditions, already rounded for display.
type Current struct {
	TemperatureC int    `json:"temperatureC"`
	Condition    string `json:"condition"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	HumidityPct  int    `json:"humidityPct"`
	WindSpeedKmh int    `json:"windSpeedKmh"`
}

// ForecastDay is one calendar day of the forecast. Date is YYYY-MM-DD (UTC).
type ForecastDay struct {
	Date      string `json:"date"`
	HighTempC int    `json:"highTempC"`
	LowTempC  int    `json:"lowTempC"`
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
}

// WeatherSnapshot is the combined current + forecast view for one location.
// Snapshots are treated as immutable once cached.
type WeatherSnapshot struct {
	Location  Location      `json:"location"`
	Current   Current       `json:"current"`
	Forecast  []ForecastDay `json:"forecast"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// Clone returns a copy that does not share the forecast slice.
func (s WeatherSnapshot) Clone() WeatherSnapshot {
	out := s
	if s.Forecast != nil {
		out.Forecast = make([]ForecastDay, len(s.Forecast))
		copy(out.Forecast, s.Forecast)
	}
	return out
}

// CurrentReport is what a provider returns for current conditions.
type CurrentReport struct {
	Location Location
	Current  Current
}

// ForecastReport is what a provider returns for the daily forecast.
type ForecastReport struct {
	Location Location
	Days     []ForecastDay
}

// IconURL resolves an opaque icon identifier to an image URL.
// Identifiers that are already protocol-relative or absolute URLs are passed through.
func IconURL(icon string) string {
	switch {
	case icon == "":
		return ""
	case strings.HasPrefix(icon, "//"):
		return "https:" + icon
	case strings.HasPrefix(icon, "http://"), strings.HasPrefix(icon, "https://"):
		return icon
	default:
		return fmt.Sprintf(iconURLTemplate, icon)
	}
}
