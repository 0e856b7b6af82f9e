// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"context"
	"sync"

	"github.com/gogama/agent/request"
)

// A Future is the pending outcome of one call to Request.End. It
// completes exactly once.
type Future struct {
	once sync.Once
	done chan struct{}
	res  *request.Response
	err  error
	ex   *request.Execution
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// deliver records the outcome and invokes cb. Only the first call has
// any effect. A panic in cb is not recovered.
func (f *Future) deliver(res *request.Response, err error, cb Callback) {
	f.once.Do(func() {
		if err != nil {
			res = nil
		}
		f.res, f.err = res, err
		defer close(f.done)
		if cb != nil {
			cb(err, res)
		}
	})
}

// Done returns a channel which is closed when the outcome is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the outcome is available and returns it. Exactly
// one of the return values is non-nil. A non-nil error always has type
// *request.Error.
func (f *Future) Wait() (*request.Response, error) {
	<-f.done
	return f.res, f.err
}

// WaitContext is like Wait, but gives up when ctx is done, returning
// ctx.Err(). Giving up does not abort the request.
func (f *Future) WaitContext(ctx context.Context) (*request.Response, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Execution returns the execution which produced the outcome, once the
// outcome is available. It returns nil before then, and for a request
// aborted before it was ended.
func (f *Future) Execution() *request.Execution {
	select {
	case <-f.done:
		return f.ex
	default:
		return nil
	}
}
