package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/logging"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 500ms)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 10 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64
}

// DefaultRetryConfig returns the resolver retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// HTTPError is a non-200 answer from a lookup service.
type HTTPError struct {
	Service    string
	StatusCode int
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// Temporary reports whether the request may succeed when repeated.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func newHTTPError(service string, resp *http.Response) *HTTPError {
	e := &HTTPError{Service: service, StatusCode: resp.StatusCode}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}

// retryable reports whether err is worth another attempt. Unknown names,
// client errors and cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Temporary()
	}
	return true
}

// RetryWithBackoffResult executes fn with exponential backoff and returns its
// result. A Retry-After hint from the service overrides the computed delay.
func RetryWithBackoffResult[T any](ctx context.Context, cfg RetryConfig, log *logging.Logger, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}

		result = res
		lastErr = err

		if !retryable(err) {
			return result, err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		// delay = min(InitialDelay * Multiplier^attempt, MaxDelay)
		nextDelay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if nextDelay > cfg.MaxDelay {
			nextDelay = cfg.MaxDelay
		}
		var he *HTTPError
		if errors.As(err, &he) && he.RetryAfter > 0 {
			nextDelay = he.RetryAfter
		}
		delay = nextDelay

		log.Debug("attempt %d failed: %v; retrying in %v", attempt+1, err, delay)
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
