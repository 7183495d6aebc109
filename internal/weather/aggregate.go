package weather

import (
	"math"
	"sort"
	"time"
)

// Sample is a single fine-grained forecast reading (typically 3-hourly).
type Sample struct {
	Time      time.Time
	TempC     float64
	Condition string
	Icon      string
}

// tally counts string occurrences and remembers first-seen order.
type tally struct {
	order  []string
	counts map[string]int
}

func (t *tally) add(v string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

// top returns the most frequent value; ties go to the value seen first.
func (t *tally) top() string {
	best, bestCount := "", 0
	for _, v := range t.order {
		if c := t.counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}

type dayBucket struct {
	high, low  float64
	conditions tally
	icons      tally
}

// DailyForecast groups samples by UTC calendar date and returns at most
// maxDays entries in chronological order.
func DailyForecast(samples []Sample, maxDays int) []ForecastDay {
	buckets := make(map[string]*dayBucket)

	for _, s := range samples {
		k := s.Time.UTC().Format(time.DateOnly)
		b, ok := buckets[k]
		if !ok {
			b = &dayBucket{high: s.TempC, low: s.TempC}
			buckets[k] = b
		}
		b.high = math.Max(b.high, s.TempC)
		b.low = math.Min(b.low, s.TempC)
		b.conditions.add(s.Condition)
		b.icons.add(s.Icon)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if maxDays > 0 && len(keys) > maxDays {
		keys = keys[:maxDays]
	}

	days := make([]ForecastDay, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		days = append(days, ForecastDay{
			Date:      k,
			HighTempC: Round(b.high),
			LowTempC:  Round(b.low),
			Condition: b.conditions.top(),
			Icon:      b.icons.top(),
		})
	}
	return days
}

// Round rounds to the nearest integer, halves away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}

// WindKmh converts a wind speed in m/s to rounded km/h. A missing value is 0.
func WindKmh(speedMS *float64) int {
	if speedMS == nil {
		return 0
	}
	return Round(*speedMS * 3.6)
}
