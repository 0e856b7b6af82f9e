// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"time"

	"github.com/gogama/agent/request"
	"github.com/hashicorp/go-retryablehttp"
)

// Retryablehttp adapts a go-retryablehttp CheckRetry function into a
// decider. A nil check uses retryablehttp.DefaultRetryPolicy. If check
// returns an error, the decider returns false.
//
// Since a CheckRetry function has no notion of a retry limit, compose
// the result with Times:
//
//	d := retry.Times(3).And(retry.Retryablehttp(nil))
func Retryablehttp(check retryablehttp.CheckRetry) DeciderFunc {
	if check == nil {
		check = retryablehttp.DefaultRetryPolicy
	}
	return func(e *request.Execution) bool {
		var err error
		if e.Response == nil {
			err = e.Err
		}
		retry, checkErr := check(e.Plan.Context(), toHTTPResponse(e.Response), err)
		return retry && checkErr == nil
	}
}

// NewRetryablehttpWaiter adapts a go-retryablehttp Backoff function into
// a Waiter. A nil backoff uses retryablehttp.DefaultBackoff, which
// honours the Retry-After header of 429 and 503 responses.
func NewRetryablehttpWaiter(backoff retryablehttp.Backoff, min, max time.Duration) Waiter {
	if backoff == nil {
		backoff = retryablehttp.DefaultBackoff
	}
	if max < min {
		panic("agent/retry: max must be at least min")
	}
	return &retryablehttpWaiter{backoff, min, max}
}

type retryablehttpWaiter struct {
	backoff  retryablehttp.Backoff
	min, max time.Duration
}

func (w *retryablehttpWaiter) Wait(e *request.Execution) time.Duration {
	return w.backoff(w.min, w.max, e.Attempt, toHTTPResponse(e.Response))
}

func toHTTPResponse(r *request.Response) *http.Response {
	if r == nil {
		return nil
	}
	h := make(http.Header, len(r.Header))
	for name, value := range r.Header {
		h.Set(name, value)
	}
	return &http.Response{
		Status:     r.StatusText,
		StatusCode: int(r.Status),
		Header:     h,
	}
}
