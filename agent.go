// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"github.com/gogama/agent/codec"
	"github.com/gogama/agent/request"
	"github.com/gogama/agent/retry"
	"github.com/gogama/agent/timeout"
	"github.com/gogama/agent/transport"
	"github.com/gogama/agent/transport/socket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var defaultTransport = socket.New(nil)

// An Agent holds the defaults shared by the requests it creates. Its
// zero value is a valid configuration.
//
// The zero value agent uses the socket transport over
// http.DefaultClient, the process-wide codec.Default registry, no
// retries, timeout.DefaultPolicy (no timeouts), no event handlers and
// a no-op logger.
//
// An Agent is safe for concurrent use by multiple goroutines, provided
// its fields are not changed while requests created from it are in
// flight. Each Request, by contrast, is a single-use builder which
// must only be configured from one goroutine.
//
// On top of the transport, which is responsible for all details of
// moving bytes, an Agent adds the following features:
//
// • query string accumulation and body serialization driven by the
// Content-Type registry;
//
// • response materialization, including status normalization, header
// parsing and body parsing;
//
// • retries using a customizable retry policy;
//
// • overall, response and upload timeouts using a customizable timeout
// policy; and
//
// • user-provided handler functions invoked at designated points of the
// request lifecycle, allowing new features to be mixed in from outside
// libraries.
type Agent struct {
	// Transport creates the transport adapter used for each attempt.
	//
	// If Transport is nil, the socket transport over
	// http.DefaultClient is used.
	Transport transport.Factory
	// Registry resolves type aliases and selects serializers and
	// parsers.
	//
	// If Registry is nil, codec.Default is used. Set Registry to a
	// clone of codec.Default to isolate an agent's codec changes from
	// the rest of the process.
	Registry *codec.Registry
	// RetryPolicy decides when to retry failed attempts and how long
	// to wait after a failed attempt before retrying. A request which
	// calls Retry overrides the decision but keeps the wait.
	//
	// If RetryPolicy is nil, failed attempts are not retried.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies the timeouts applied to each attempt. A
	// request which calls Timeout or Timeouts overrides it.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a request execution. They run
	// before any handlers installed on the request itself.
	//
	// If Handlers is nil, no agent-wide handlers will be run.
	Handlers *HandlerGroup
	// Header holds fields copied into every new request.
	Header *request.Header
	// Limiter, if not nil, is waited on before each attempt is
	// dispatched.
	Limiter *rate.Limiter
	// Logger receives warnings about suspicious use, such as ending a
	// request twice, and debug records of retry decisions.
	//
	// If Logger is nil, nothing is logged.
	Logger *zap.Logger
}

// DefaultAgent is the zero value Agent used by the package-level verb
// constructors.
var DefaultAgent = &Agent{}

// Request creates a new request for the given method and URL.
//
// Neither method nor url is validated until the request is ended, when
// the transport is opened.
func (a *Agent) Request(method, url string) *Request {
	return newRequest(a, method, url)
}

// Get creates a GET request for url.
func (a *Agent) Get(url string) *Request { return a.Request("GET", url) }

// Head creates a HEAD request for url.
func (a *Agent) Head(url string) *Request { return a.Request("HEAD", url) }

// Options creates an OPTIONS request for url.
func (a *Agent) Options(url string) *Request { return a.Request("OPTIONS", url) }

// Post creates a POST request for url.
func (a *Agent) Post(url string) *Request { return a.Request("POST", url) }

// Put creates a PUT request for url.
func (a *Agent) Put(url string) *Request { return a.Request("PUT", url) }

// Patch creates a PATCH request for url.
func (a *Agent) Patch(url string) *Request { return a.Request("PATCH", url) }

// Delete creates a DELETE request for url.
func (a *Agent) Delete(url string) *Request { return a.Request("DELETE", url) }

func (a *Agent) transport() transport.Factory {
	if a.Transport == nil {
		return defaultTransport
	}
	return a.Transport
}

func (a *Agent) registry() *codec.Registry {
	if a.Registry == nil {
		return codec.Default
	}
	return a.Registry
}

func (a *Agent) retryPolicy() retry.Policy {
	if a.RetryPolicy == nil {
		return retry.Never
	}
	return a.RetryPolicy
}

func (a *Agent) timeoutPolicy() timeout.Policy {
	if a.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return a.TimeoutPolicy
}

func (a *Agent) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
