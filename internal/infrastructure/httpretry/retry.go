package httpretry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 100 * time.Millisecond
)

// Policy retries network errors and 5xx responses up to MaxRetries times
// after the first attempt, doubling the delay from BaseDelay on. 4xx
// responses are returned right away.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{DefaultMaxRetries, DefaultBaseDelay}
}

// StatusError is returned for non 2xx responses. Body holds at most the
// first KB of the response.
type StatusError struct {
	StatusCode int
	Attempts   int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"request failed with status %d after %d attempts: %s", e.StatusCode, e.Attempts, e.Body,
	)
}

// Do sends the request built by newReq until it gets a 2xx response. The
// caller must close the body of the returned response.
func (p Policy) Do(
	ctx context.Context, client *http.Client, newReq func() (*http.Request, error),
) (*http.Response, error) {
	attempts := 0
	send := func() (*http.Response, error) {
		attempts++

		req, err := newReq()
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()

		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Attempts:   attempts,
			Body:       string(body),
		}
		if resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	return backoff.RetryWithData(send, p.backOff(ctx))
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		b.InitialInterval = p.BaseDelay
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
}
