// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"github.com/gogama/agent/request"
)

// Requester is the interface that wraps the basic Request method.
//
// Request creates a new request builder for a method and URL. Agent
// implements the Requester interface.
type Requester interface {
	Request(method, url string) *Request
}

// Ender is the interface that wraps the End method.
//
// End finalizes a request, dispatches it, and returns a Future for the
// outcome, invoking the callback exactly once. Request implements the
// Ender interface.
type Ender interface {
	End(cb Callback) *Future
}

// Doer is the interface that wraps the Do method.
//
// Do ends a request and blocks until the outcome is available. Request
// implements the Doer interface.
type Doer interface {
	Do() (*request.Response, error)
}

var (
	_ Requester = (*Agent)(nil)
	_ Ender     = (*Request)(nil)
	_ Doer      = (*Request)(nil)
)

// New creates a new request for method and url using DefaultAgent.
func New(method, url string) *Request {
	return DefaultAgent.Request(method, url)
}

// Get creates a GET request for url using DefaultAgent.
func Get(url string) *Request { return DefaultAgent.Get(url) }

// Head creates a HEAD request for url using DefaultAgent.
func Head(url string) *Request { return DefaultAgent.Head(url) }

// Options creates an OPTIONS request for url using DefaultAgent.
func Options(url string) *Request { return DefaultAgent.Options(url) }

// Post creates a POST request for url using DefaultAgent.
func Post(url string) *Request { return DefaultAgent.Post(url) }

// Put creates a PUT request for url using DefaultAgent.
func Put(url string) *Request { return DefaultAgent.Put(url) }

// Patch creates a PATCH request for url using DefaultAgent.
func Patch(url string) *Request { return DefaultAgent.Patch(url) }

// Delete creates a DELETE request for url using DefaultAgent.
func Delete(url string) *Request { return DefaultAgent.Delete(url) }
