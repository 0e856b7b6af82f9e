// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gogama/agent/request"
	"github.com/stretchr/testify/assert"
)

func TestRetryablehttp(t *testing.T) {
	plan := &request.Plan{Method: "GET", URL: "http://x"}
	d := Retryablehttp(nil)

	t.Run("5xx", func(t *testing.T) {
		e := &request.Execution{Plan: plan, Response: &request.Response{Status: 503}}
		assert.True(t, d(e))
	})
	t.Run("501 is not retried", func(t *testing.T) {
		e := &request.Execution{Plan: plan, Response: &request.Response{Status: 501}}
		assert.False(t, d(e))
	})
	t.Run("2xx", func(t *testing.T) {
		e := &request.Execution{Plan: plan, Response: &request.Response{Status: 200}}
		assert.False(t, d(e))
	})
	t.Run("network error", func(t *testing.T) {
		e := &request.Execution{Plan: plan, Err: request.NewNetworkError(plan, errors.New("connection reset"))}
		assert.True(t, d(e))
	})
	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := &request.Execution{Plan: plan.WithContext(ctx), Response: &request.Response{Status: 503}}
		assert.False(t, d(e))
	})
	t.Run("custom check", func(t *testing.T) {
		var got *http.Response
		custom := Retryablehttp(func(_ context.Context, resp *http.Response, _ error) (bool, error) {
			got = resp
			return true, nil
		})
		e := &request.Execution{
			Plan:     plan,
			Response: &request.Response{Status: 418, Header: map[string]string{"x-tea": "earl grey"}},
		}
		assert.True(t, custom(e))
		assert.Equal(t, 418, got.StatusCode)
		assert.Equal(t, "earl grey", got.Header.Get("X-Tea"))
	})
}

func TestNewRetryablehttpWaiter(t *testing.T) {
	t.Run("invalid bounds", func(t *testing.T) {
		assert.PanicsWithValue(t, "agent/retry: max must be at least min", func() {
			NewRetryablehttpWaiter(nil, time.Second, time.Millisecond)
		})
	})
	t.Run("exponential", func(t *testing.T) {
		w := NewRetryablehttpWaiter(nil, 10*time.Millisecond, 50*time.Millisecond)
		assert.Equal(t, 10*time.Millisecond, w.Wait(&request.Execution{}))
		assert.Equal(t, 20*time.Millisecond, w.Wait(&request.Execution{Attempt: 1}))
		assert.Equal(t, 50*time.Millisecond, w.Wait(&request.Execution{Attempt: 5}))
	})
	t.Run("Retry-After", func(t *testing.T) {
		w := NewRetryablehttpWaiter(nil, 10*time.Millisecond, 50*time.Millisecond)
		e := &request.Execution{
			Response: &request.Response{Status: 429, Header: map[string]string{"retry-after": "3"}},
		}
		assert.Equal(t, 3*time.Second, w.Wait(e))
	})
}
