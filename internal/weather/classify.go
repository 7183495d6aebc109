package weather

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/i474232898/weather-client/internal/common"
)

// Kind is the closed set of failure categories surfaced to callers.
type Kind string

const (
	KindNetwork            Kind = "network"
	KindTimeout            Kind = "timeout"
	KindNotFound           Kind = "not_found"
	KindServiceUnavailable Kind = "service_unavailable"
	KindUnauthorized       Kind = "unauthorized"
	KindUnknown            Kind = "unknown"
)

// UnauthorizedDismissAfter is how long an unauthorized error stays on screen.
const UnauthorizedDismissAfter = 10 * time.Second

const (
	msgNetwork      = "Unable to reach the weather service. Check your internet connection and try again."
	msgTimeout      = "The weather service took too long to respond. Please try again."
	msgNotFound     = "Location not found. Please check the spelling and try again."
	msgUnauthorized = "The weather service rejected the API key. Check your configuration."
	msgUnavailable  = "The weather service is temporarily unavailable. Please try again later."
	msgRateLimited  = "Too many requests to the weather service. Please wait a moment and try again."
	msgUnknown      = "Something went wrong while fetching weather data. Please try again."
)

// ErrorResult is a classified failure. Retryable is advisory only.
type ErrorResult struct {
	Kind        Kind          `json:"kind"`
	Message     string        `json:"message"`
	Retryable   bool          `json:"retryable"`
	Status      int           `json:"status,omitempty"`
	AutoDismiss time.Duration `json:"-"`
	Err         error         `json:"-"`
}

func (e *ErrorResult) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ErrorResult) Unwrap() error { return e.Err }

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Classify maps an arbitrary fetch error to an ErrorResult. Rules are checked
// in order and the first match wins.
func Classify(err error) *ErrorResult {
	if err == nil {
		return nil
	}
	var res *ErrorResult
	if errors.As(err, &res) {
		return res
	}

	status := statusOf(err)
	res = &ErrorResult{Status: status, Retryable: true, Err: err}

	switch {
	case isTransportFailure(err):
		res.Kind, res.Message = KindNetwork, msgNetwork
	case isTimeout(err):
		res.Kind, res.Message = KindTimeout, msgTimeout
	case status == http.StatusNotFound || errors.Is(err, ErrLocationNotFound) || (status == 0 && hasSignal(err, notFoundSignals...)):
		res.Kind, res.Message = KindNotFound, msgNotFound
	case status == http.StatusUnauthorized:
		res.Kind, res.Message = KindUnauthorized, msgUnauthorized
		res.Retryable = false
		res.AutoDismiss = UnauthorizedDismissAfter
	case isServerStatus(status) || errors.Is(err, ErrServiceUnavailable) || (status == 0 && hasSignal(err, unavailableSignals...)):
		res.Kind, res.Message = KindServiceUnavailable, msgUnavailable
	case status == http.StatusTooManyRequests:
		res.Kind, res.Message = KindServiceUnavailable, msgRateLimited
	default:
		res.Kind, res.Message = KindUnknown, msgUnknown
	}
	return res
}

func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

func isServerStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isTransportFailure reports name resolution and connection failures.
// Timeouts are left to isTimeout even when they happen at the transport layer.
func isTransportFailure(err error) bool {
	if isTimeout(err) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// Text signals are only consulted when the error carries no HTTP status.
var (
	notFoundSignals    = []string{"not found", "no matching location"}
	unavailableSignals = []string{"service unavailable", "temporarily unavailable"}
)

func hasSignal(err error, signals ...string) bool {
	return common.ContainsAnyFold(err.Error(), signals...)
}
