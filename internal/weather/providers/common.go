package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-client/internal/weather"
)

// DefaultRate is the outbound request rate per provider (requests/second).
const DefaultRate = 5

const maxErrorBody = 4 << 10

// HTTPError is a non-2xx response from a provider.
type HTTPError struct {
	StatusCode int
	Code       int
	Message    string
	err        error
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// HTTPStatus implements weather.StatusCoder.
func (e *HTTPError) HTTPStatus() int { return e.StatusCode }

func (e *HTTPError) Unwrap() error { return e.err }

// Option configures a provider.
type Option func(*requester)

// WithBaseURL points the provider at a different API root (used by tests).
func WithBaseURL(base string) Option {
	return func(r *requester) { r.baseURL = base }
}

// WithRate overrides the outbound request rate. A non-positive value disables limiting.
func WithRate(perSecond float64) Option {
	return func(r *requester) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// requester performs GET requests behind a rate limiter and a circuit breaker.
type requester struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker

	// parseError extracts provider-specific details from an error body.
	parseError func(status int, body []byte) *HTTPError
}

func newRequester(name, baseURL string, client *http.Client, opts ...Option) *requester {
	if client == nil {
		client = http.DefaultClient
	}
	r := &requester{
		client:  client,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(DefaultRate), 1),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			// A location that does not exist says nothing about provider health.
			IsSuccessful: func(err error) bool {
				var httpErr *HTTPError
				if errors.As(err, &httpErr) {
					return httpErr.StatusCode < 500
				}
				return err == nil
			},
		}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// getJSON requests baseURL/path?query and decodes a 2xx body into out.
func (r *requester) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			// Wait fails early, without touching ctx, when the next token
			// would arrive after the deadline.
			if ctx.Err() == nil {
				return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return err
		}
	}

	u := fmt.Sprintf("%s/%s?%s", r.baseURL, path, query.Encode())

	_, err := r.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, r.httpError(resp.StatusCode, body)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", path, err)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", weather.ErrServiceUnavailable, err)
	}
	return err
}

func (r *requester) httpError(status int, body []byte) *HTTPError {
	if r.parseError != nil {
		if e := r.parseError(status, body); e != nil {
			return e
		}
	}
	return &HTTPError{StatusCode: status}
}

func requireLocation(display string) (string, error) {
	if display == "" {
		return "", weather.ErrEmptyLocation
	}
	return display, nil
}
