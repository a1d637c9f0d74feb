package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// RetryConfig configures retry behavior for calls to flaky upstreams.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns sensible defaults for HTTP retries
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// ShouldRetryResponse determines if a request should be retried: any
// transport error, or a rate-limit / server-error status.
func ShouldRetryResponse(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// NewHTTPExecutor creates a failsafe executor for HTTP requests with
// exponential backoff and jitter.
//
//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func NewHTTPExecutor(cfg RetryConfig) failsafe.Executor[*http.Response] {
	policy := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(ShouldRetryResponse).
		Build()
	return failsafe.With(policy)
}

// ExecuteHTTP runs an HTTP request through the executor. fn must build a
// fresh request per attempt when the request carries a body. The body of
// a failed attempt is closed before the next one; only the returned
// response's body is left open for the caller.
func ExecuteHTTP(ctx context.Context, executor failsafe.Executor[*http.Response], fn func() (*http.Response, error)) (*http.Response, error) {
	var prev *http.Response
	return executor.WithContext(ctx).Get(func() (*http.Response, error) {
		if prev != nil && prev.Body != nil {
			prev.Body.Close()
		}
		resp, err := fn()
		prev = resp
		return resp, err
	})
}
