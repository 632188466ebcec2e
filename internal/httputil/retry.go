// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryDelay is the fixed pause between attempts when a Policy leaves Delay
// unset. Tests override this to avoid real sleeps.
var RetryDelay = 2 * time.Second

const defaultMaxAttempts = 2

// ErrBlocked reports an HTTP 403 from the origin. It is terminal: retrying a
// blocked locator never helps.
var ErrBlocked = errors.New("access forbidden")

// StatusError is returned for non-2xx responses other than 403.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Policy controls DoWithRetry.
type Policy struct {
	// MaxAttempts is the total number of attempts (default 2).
	MaxAttempts int

	// Delay is the pause after a failed attempt (default RetryDelay).
	Delay time.Duration

	// OnAttempt, if set, is called before each attempt with the 1-based
	// attempt number.
	OnAttempt func(attempt int)

	// OnFailure, if set, is called after each failed, non-terminal attempt.
	OnFailure func(attempt int, err error)
}

// Retry runs fn up to p.MaxAttempts times, sequentially, pausing p.Delay
// after each failure. An error wrapping ErrBlocked stops immediately and is
// returned as-is. When attempts run out the last error is returned, wrapped.
// If ctx is cancelled the function returns ctx.Err().
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = RetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if p.OnAttempt != nil {
			p.OnAttempt(attempt)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrBlocked) {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts {
			break
		}
		if p.OnFailure != nil {
			p.OnFailure(attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("giving up after %d attempt(s): %w", attempts, lastErr)
}

// DoWithRetry executes req under Retry. A 2xx response is returned to the
// caller, who must close the body. A 403 stops immediately with an error
// wrapping ErrBlocked; any other status or transport error is retried.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	var resp *http.Response
	err := Retry(ctx, p, func(ctx context.Context) error {
		r, err := client.Do(req.Clone(ctx))
		if err != nil {
			return err
		}
		if err := CheckStatus(r); err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckStatus returns nil for a 2xx response. Otherwise it drains and closes
// the body and returns an error wrapping ErrBlocked (403) or a *StatusError.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	drain(resp)
	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrBlocked, resp.Request.URL)
	}
	return &StatusError{Code: resp.StatusCode, URL: resp.Request.URL.String()}
}

// drain discards and closes the body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
