package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

//nolint:bodyclose // test responses have no body
func TestExecuteHTTPRetriesUpToConfiguredLimit(t *testing.T) {
	executor := NewHTTPExecutor(RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
	})

	var attempts int32
	_, err := ExecuteHTTP(context.Background(), executor, func() (*http.Response, error) {
		count := atomic.AddInt32(&attempts, 1)
		if count < 3 {
			return nil, errors.New("dns lag")
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected exactly 3 attempts (1 + 2 retries), got %d", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestExecuteHTTPStopsOnNonRetryableStatus(t *testing.T) {
	executor := NewHTTPExecutor(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
	})

	var attempts int32
	resp, err := ExecuteHTTP(context.Background(), executor, func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &http.Response{StatusCode: http.StatusBadRequest}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected a single attempt on client error, got %d", got)
	}
}

type closeRecorder struct {
	closed bool
}

func (c *closeRecorder) Read([]byte) (int, error) { return 0, io.EOF }
func (c *closeRecorder) Close() error             { c.closed = true; return nil }

//nolint:bodyclose // the final body stays open for the caller on purpose
func TestExecuteHTTPClosesRetriedBodies(t *testing.T) {
	executor := NewHTTPExecutor(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
	})

	bodies := []*closeRecorder{{}, {}, {}}
	var attempt int
	resp, err := ExecuteHTTP(context.Background(), executor, func() (*http.Response, error) {
		body := bodies[attempt]
		attempt++
		status := http.StatusServiceUnavailable
		if attempt == len(bodies) {
			status = http.StatusOK
		}
		return &http.Response{StatusCode: status, Body: body}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !bodies[0].closed || !bodies[1].closed {
		t.Fatalf("failed attempt bodies must be closed: %v %v", bodies[0].closed, bodies[1].closed)
	}
	if bodies[2].closed {
		t.Fatal("the returned response body must stay open")
	}
}

func TestShouldRetryResponseBoundaries(t *testing.T) {
	if !ShouldRetryResponse(nil, errors.New("network partition")) {
		t.Fatal("expected transport errors to be retryable")
	}
	if !ShouldRetryResponse(&http.Response{StatusCode: http.StatusTooManyRequests}, nil) {
		t.Fatal("expected 429 to be retryable")
	}
	if ShouldRetryResponse(&http.Response{StatusCode: http.StatusNotFound}, nil) {
		t.Fatal("expected 404 to be non-retryable")
	}
}
