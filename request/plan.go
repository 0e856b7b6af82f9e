// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/gogama/agent/transport"
)

const (
	nilCtxMsg = "agent/request: nil context"
)

// A Plan is a finalized request, ready to be sent any number of times.
//
// A Plan is produced once, when a request is ended, by freezing the
// accumulated query string, headers and body. Every attempt made while
// executing the Plan, including retries, sends exactly the same method,
// URL, headers and body. The lifecycle treats a Plan as immutable once
// execution starts; event handlers should do the same.
type Plan struct {
	// Method is the HTTP method. An empty string means GET.
	Method string

	// URL is the target URL including the finalized query string. It
	// is opaque to the lifecycle and is only validated by the
	// transport when an attempt is opened.
	URL string

	// Header holds the request header fields. Suppressed fields are
	// never sent.
	Header *Header

	// Body is the pre-buffered, already serialized request body. A nil
	// or empty body means no body is sent.
	Body []byte

	// ResponseType optionally asks the transport to deliver the
	// response in a particular form. See transport.ResponseTyper.
	ResponseType string

	// Credentials are passed to the transport when each attempt is
	// opened. They are nil unless basic authentication was requested
	// in a form the transport must apply itself.
	Credentials *transport.Credentials

	// ctx allows the entire Plan execution to be cancelled. It should
	// only be modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
//
// The method and URL are not validated here. A malformed method or URL
// is reported by the transport when the first attempt is opened.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    url,
		Header: &Header{},
		Body:   b,
	}, nil
}

// Context returns the request plan's context. The context controls
// cancellation of the overall request plan. To change the context, use
// WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
//
// Cancelling the context has the same effect as aborting the request:
// any in-flight attempt is aborted and no further attempts are made.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// IsHead reports whether the plan uses the HEAD method. HEAD responses
// are never parsed.
func (p *Plan) IsHead() bool {
	return strings.EqualFold(p.Method, "HEAD")
}

// JoinQuery appends the query string q to rawURL. The query is added
// after any existing query and before any fragment. If sorted is true,
// every pair in the resulting query string, including pairs already in
// rawURL, is sorted lexically.
func JoinQuery(rawURL, q string, sorted bool) string {
	var fragment string
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL, fragment = rawURL[:i], rawURL[i:]
	}
	if q != "" {
		if strings.IndexByte(rawURL, '?') >= 0 {
			rawURL += "&" + q
		} else {
			rawURL += "?" + q
		}
	}
	if sorted {
		if i := strings.IndexByte(rawURL, '?'); i >= 0 {
			pairs := strings.Split(rawURL[i+1:], "&")
			sort.Strings(pairs)
			rawURL = rawURL[:i+1] + strings.Join(pairs, "&")
		}
	}
	return rawURL + fragment
}
