package weather_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-client/internal/weather"
)

func samplesFrom(start time.Time, step time.Duration, temps ...float64) []weather.Sample {
	out := make([]weather.Sample, len(temps))
	for i, temp := range temps {
		out[i] = weather.Sample{
			Time:      start.Add(time.Duration(i) * step),
			TempC:     temp,
			Condition: "Clear",
			Icon:      "01d",
		}
	}
	return out
}

func TestDailyForecast_TwoDays(t *testing.T) {
	// Four samples on each side of midnight UTC.
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	samples := samplesFrom(start, 3*time.Hour, 10, 12, 15, 9, 20, 22, 18, 16)

	days := weather.DailyForecast(samples, weather.MaxForecastDays)
	require.Len(t, days, 2)
	assert.Equal(t, weather.ForecastDay{Date: "2026-03-01", HighTempC: 15, LowTempC: 9, Condition: "Clear", Icon: "01d"}, days[0])
	assert.Equal(t, "2026-03-02", days[1].Date)
	assert.Equal(t, 22, days[1].HighTempC)
	assert.Equal(t, 16, days[1].LowTempC)
}

func TestDailyForecast_CapsAndOrders(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := samplesFrom(start, 12*time.Hour, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)

	// Out-of-order input must still come back chronologically.
	samples[0], samples[13] = samples[13], samples[0]

	days := weather.DailyForecast(samples, weather.MaxForecastDays)
	require.Len(t, days, weather.MaxForecastDays)
	for i, want := range []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05"} {
		assert.Equal(t, want, days[i].Date)
		assert.GreaterOrEqual(t, days[i].HighTempC, days[i].LowTempC)
	}
}

func TestDailyForecast_BucketsByUTCDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	samples := []weather.Sample{
		{Time: time.Date(2026, 3, 2, 8, 0, 0, 0, tokyo), TempC: 5}, // 2026-03-01 23:00 UTC
		{Time: time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo), TempC: 7},
	}

	days := weather.DailyForecast(samples, 0)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-03-01", days[0].Date)
	assert.Equal(t, "2026-03-02", days[1].Date)
}

func TestDailyForecast_MostFrequentCondition(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 1, h, 0, 0, 0, time.UTC) }

	t.Run("majority", func(t *testing.T) {
		days := weather.DailyForecast([]weather.Sample{
			{Time: at(0), Condition: "Clouds", Icon: "04n"},
			{Time: at(3), Condition: "Rain", Icon: "10n"},
			{Time: at(6), Condition: "Rain", Icon: "10d"},
			{Time: at(9), Condition: "Rain", Icon: "10d"},
		}, 5)
		require.Len(t, days, 1)
		assert.Equal(t, "Rain", days[0].Condition)
		assert.Equal(t, "10d", days[0].Icon)
	})

	t.Run("tie goes to first seen", func(t *testing.T) {
		days := weather.DailyForecast([]weather.Sample{
			{Time: at(0), Condition: "Snow", Icon: "13d"},
			{Time: at(3), Condition: "Clear", Icon: "01d"},
			{Time: at(6), Condition: "Clear", Icon: "01d"},
			{Time: at(9), Condition: "Snow", Icon: "13d"},
		}, 5)
		require.Len(t, days, 1)
		assert.Equal(t, "Snow", days[0].Condition)
		assert.Equal(t, "13d", days[0].Icon)
	})
}

func TestDailyForecast_Empty(t *testing.T) {
	assert.Empty(t, weather.DailyForecast(nil, 5))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 18, weather.Round(18.4))
	assert.Equal(t, 19, weather.Round(18.5))
	assert.Equal(t, -3, weather.Round(-2.5))
	assert.Equal(t, 0, weather.Round(-0.4))
}

func TestWindKmh(t *testing.T) {
	five := 5.0
	assert.Equal(t, 18, weather.WindKmh(&five))
	assert.Equal(t, 0, weather.WindKmh(nil))
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", weather.IconURL("10d"))
	assert.Equal(t, "https://cdn.example.com/a.png", weather.IconURL("//cdn.example.com/a.png"))
	assert.Equal(t, "http://x/y.png", weather.IconURL("http://x/y.png"))
	assert.Empty(t, weather.IconURL(""))
}
