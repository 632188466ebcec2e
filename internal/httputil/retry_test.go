// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny delay so tests finish quickly.
	RetryDelay = 1 * time.Millisecond
}

func statusServer(t *testing.T, calls *int32, codes ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		code := codes[len(codes)-1]
		if n <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestDoWithRetry_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusOK)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, Policy{MaxAttempts: 2})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_RetriesThen200(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	var failures []int
	resp, err := DoWithRetry(context.Background(), ts.Client(), req, Policy{
		MaxAttempts: 3,
		OnFailure:   func(attempt int, _ error) { failures = append(failures, attempt) },
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []int{1, 2}, failures)
}

func TestDoWithRetry_ForbiddenIsTerminal(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusForbidden)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, Policy{MaxAttempts: 5})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_ExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusServiceUnavailable)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	var attempts []int
	_, err = DoWithRetry(context.Background(), ts.Client(), req, Policy{
		MaxAttempts: 3,
		OnAttempt:   func(n int) { attempts = append(attempts, n) },
	})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoWithRetry_DefaultMaxAttempts(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusInternalServerError)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(context.Background(), ts.Client(), req, Policy{})
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(context.Background(), http.DefaultClient, req, Policy{MaxAttempts: 2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBlocked)
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusInternalServerError)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, Policy{MaxAttempts: 5, Delay: time.Second})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetry_StopsOnBlocked(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{MaxAttempts: 4}, func(context.Context) error {
		calls++
		if calls == 2 {
			return fmt.Errorf("download: %w", ErrBlocked)
		}
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, 2, calls)
}

func TestRetry_SucceedsAfterFailure(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{MaxAttempts: 2}, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("partial body")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
