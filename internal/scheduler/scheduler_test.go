package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-client/internal/weather"
)

type fakeResolver struct {
	mu       sync.Mutex
	resolved []string
	purges   int
	err      error
}

func (f *fakeResolver) Resolve(_ context.Context, raw string) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, raw)
	return weather.WeatherSnapshot{}, f.err
}

func (f *fakeResolver) PurgeExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges++
	return 0
}

func (f *fakeResolver) calls() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purges, append([]string(nil), f.resolved...)
}

func TestRunOnceRefreshesLastLocation(t *testing.T) {
	r := &fakeResolver{}
	s := New(r, func() string { return "Lisbon" }, time.Minute, zerolog.Nop())

	s.RunOnce(context.Background())

	purges, resolved := r.calls()
	assert.Equal(t, 1, purges)
	assert.Equal(t, []string{"Lisbon"}, resolved)
}

func TestRunOnceWithoutLastLocationOnlyPurges(t *testing.T) {
	r := &fakeResolver{}
	s := New(r, func() string { return "" }, time.Minute, zerolog.Nop())

	s.RunOnce(context.Background())

	purges, resolved := r.calls()
	assert.Equal(t, 1, purges)
	assert.Empty(t, resolved)
}

func TestRunOnceLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	r := &fakeResolver{err: errors.New("boom")}
	s := New(r, func() string { return "Lisbon" }, time.Minute, zerolog.New(&buf))

	s.RunOnce(context.Background())
	assert.Contains(t, buf.String(), "scheduler: refresh failed")
}

func TestStartRunsOnInterval(t *testing.T) {
	r := &fakeResolver{}
	s := New(r, func() string { return "Lisbon" }, time.Second, zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		purges, _ := r.calls()
		return purges >= 1
	}, 5*time.Second, 50*time.Millisecond)
}
