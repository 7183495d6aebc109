package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-client/internal/location"
)

// DefaultRequestTimeout bounds each outbound provider call.
const DefaultRequestTimeout = 5 * time.Second

// ErrNoLastQuery is returned by Retry before any query has been resolved.
var ErrNoLastQuery = errors.New("no previous query to retry")

// Service coordinates snapshot lookups: it serves fresh cache hits, joins
// in-flight fetches for the same location key and otherwise fetches current
// conditions and forecast concurrently.
type Service struct {
	provider Provider
	cache    Cache
	reporter ErrorReporter
	timeout  time.Duration
	now      func() time.Time

	inflight singleflight.Group
	fetches  atomic.Int64

	mu        sync.Mutex
	lastQuery string
	listeners map[int]func(*ErrorResult)
	nextID    int
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout overrides the per-call provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithReporter sets where classified failures are logged.
func WithReporter(r ErrorReporter) Option {
	return func(s *Service) { s.reporter = r }
}

// WithClock replaces time.Now for FetchedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(cache Cache, provider Provider, opts ...Option) *Service {
	s := &Service{
		provider:  provider,
		cache:     cache,
		timeout:   DefaultRequestTimeout,
		now:       time.Now,
		listeners: make(map[int]func(*ErrorResult)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the snapshot for a raw location query.
//
// Invalid queries fail with *location.ValidationError before any network
// access. Fetch failures come back as *ErrorResult; missing configuration
// (ErrMissingAPIKey, ErrEmptyLocation) is returned unclassified.
func (s *Service) Resolve(ctx context.Context, raw string) (WeatherSnapshot, error) {
	q, err := location.Parse(raw)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	s.mu.Lock()
	s.lastQuery = raw
	s.mu.Unlock()

	key := string(q.Key)
	if snap, ok := s.cache.Get(key); ok {
		return snap.Clone(), nil
	}

	// The fetch outlives any single caller so joiners are not failed by
	// the first caller giving up.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		if snap, ok := s.cache.Get(key); ok {
			return snap, nil
		}
		return s.fetch(fetchCtx, q)
	})

	select {
	case <-ctx.Done():
		return WeatherSnapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return WeatherSnapshot{}, res.Err
		}
		return res.Val.(WeatherSnapshot).Clone(), nil
	}
}

// Retry resolves the most recent query again.
func (s *Service) Retry(ctx context.Context) (WeatherSnapshot, error) {
	s.mu.Lock()
	raw := s.lastQuery
	s.mu.Unlock()

	if raw == "" {
		return WeatherSnapshot{}, ErrNoLastQuery
	}
	return s.Resolve(ctx, raw)
}

// LastQuery returns the raw text of the most recent Resolve call.
func (s *Service) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// Subscribe registers fn to be called with every classified failure.
// The returned func removes the subscription.
func (s *Service) Subscribe(fn func(*ErrorResult)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// PurgeExpired drops stale cache entries and reports how many were removed.
func (s *Service) PurgeExpired() int {
	return s.cache.Purge()
}

// ClearCache drops every cached snapshot.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// Stats is a point-in-time view of coordinator activity.
type Stats struct {
	CachedLocations int   `json:"cachedLocations"`
	Fetches         int64 `json:"fetches"`
}

// Stats returns cache size and the number of fetches issued so far.
func (s *Service) Stats() Stats {
	return Stats{
		CachedLocations: s.cache.Len(),
		Fetches:         s.fetches.Load(),
	}
}

func (s *Service) fetch(ctx context.Context, q location.Query) (WeatherSnapshot, error) {
	s.fetches.Add(1)

	var (
		cur CurrentReport
		fc  ForecastReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.timeout)
		defer cancel()

		r, err := s.provider.FetchCurrent(cctx, q.Display)
		cur = r
		return err
	})
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.timeout)
		defer cancel()

		r, err := s.provider.FetchForecast(cctx, q.Display)
		fc = r
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrEmptyLocation) {
			return WeatherSnapshot{}, err
		}
		res := Classify(err)
		s.report("resolve "+q.Display, res)
		return WeatherSnapshot{}, res
	}

	snap := WeatherSnapshot{
		Location:  mergeLocation(q, cur.Location, fc.Location),
		Current:   cur.Current,
		Forecast:  fc.Days,
		FetchedAt: s.now().UTC(),
	}
	s.cache.Set(string(q.Key), snap)
	return snap, nil
}

func (s *Service) report(label string, res *ErrorResult) {
	if s.reporter != nil {
		s.reporter.Report(label, res)
	}

	s.mu.Lock()
	fns := make([]func(*ErrorResult), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(res)
	}
}

func mergeLocation(q location.Query, current, forecast Location) Location {
	loc := current
	if loc.Name == "" {
		loc.Name = forecast.Name
	}
	if loc.Country == "" {
		loc.Country = forecast.Country
	}
	if loc.Name == "" {
		loc.Name = q.Display
	}
	return loc
}
