package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-client/internal/weather"
)

const jobTimeout = 30 * time.Second

// Resolver is the part of weather.Service the refresh job uses.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (weather.WeatherSnapshot, error)
	PurgeExpired() int
}

// Scheduler periodically evicts stale snapshots and re-resolves the last
// searched location so it stays warm in the cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  Resolver
	last      func() string
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler. last returns the location to keep warm; an
// empty string skips the refresh.
func New(resolver Resolver, last func() string, interval time.Duration, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		resolver:  resolver,
		last:      last,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", interval).Msg("scheduler: started")
	return nil
}

// RunOnce performs a single refresh pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	purged := s.resolver.PurgeExpired()
	s.log.Debug().Int("purged", purged).Msg("scheduler: purged expired snapshots")

	name := ""
	if s.last != nil {
		name = s.last()
	}
	if name == "" {
		return
	}

	if _, err := s.resolver.Resolve(ctx, name); err != nil {
		s.log.Warn().Err(err).Str("location", name).Msg("scheduler: refresh failed")
		return
	}
	s.log.Debug().Str("location", name).Msg("scheduler: refreshed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
