// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"fmt"
	"net/url"

	"golang.org/x/net/http/httpguts"
)

// Credentials are a user name and password passed to Open. Adapters
// apply them as HTTP Basic authentication.
type Credentials struct {
	Username string
	Password string
}

// A Capability is a set of optional adapter features.
type Capability uint

const (
	// UploadProgress means the adapter emits upload Progress events.
	UploadProgress Capability = 1 << iota
	// DownloadProgress means the adapter emits download Progress events.
	DownloadProgress
	// ResponseType means the adapter implements ResponseTyper.
	ResponseType
	// RawHeader means completions carry raw header text rather than
	// a parsed http.Header.
	RawHeader
	// EarlyHeaders means the adapter emits HeadersEvent as soon as the
	// response status line and headers are received.
	EarlyHeaders
)

// Has reports whether c includes every feature in x.
func (c Capability) Has(x Capability) bool {
	return c&x == x
}

// An Adapter performs a single request attempt.
//
// Open must be called first, then SetHeader any number of times, then
// Send exactly once. An adapter is not reusable: each attempt uses a new
// adapter obtained from a Factory.
type Adapter interface {
	// Open prepares the attempt. It returns an *OpenError if the method
	// or URL is malformed, in which case no further calls may be made.
	Open(method, url string, cred *Credentials) error

	// SetHeader sets a request header field.
	SetHeader(name, value string)

	// Send starts the attempt asynchronously and returns immediately.
	// The adapter calls emit for every event. The last event emitted is
	// always a terminal event, and exactly one terminal event is
	// emitted. The emit function may be called from any goroutine but
	// calls are never concurrent.
	Send(body []byte, emit Sink)

	// Abort cancels the attempt. If the attempt has not yet emitted its
	// terminal event, it emits Abort. Abort is idempotent and safe to
	// call after the terminal event or before Send.
	Abort()

	// Capabilities reports the optional features the adapter supports.
	Capabilities() Capability
}

// ResponseTyper is implemented by adapters with the ResponseType
// capability. The response type is one of "", "text", "json",
// "arraybuffer" and "blob". Any type other than "" and "text" makes
// the response text unavailable.
type ResponseTyper interface {
	SetResponseType(t string)
}

// A Factory returns a fresh Adapter for each request attempt.
type Factory func() Adapter

// An OpenError is returned by Adapter.Open when the method or URL can
// not be used.
type OpenError struct {
	Method string
	URL    string
	Err    error
}

func (err *OpenError) Error() string {
	return fmt.Sprintf("agent/transport: cannot open %s %s: %v", err.Method, err.URL, err.Err)
}

func (err *OpenError) Unwrap() error {
	return err.Err
}

// ValidateOpen checks that method is a valid HTTP token and that rawURL
// is an absolute http or https URL with a host. It returns the parsed
// URL or an *OpenError.
func ValidateOpen(method, rawURL string) (*url.URL, error) {
	if method == "" || !httpguts.ValidHeaderFieldName(method) {
		return nil, &OpenError{method, rawURL, fmt.Errorf("invalid method %q", method)}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &OpenError{method, rawURL, err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &OpenError{method, rawURL, fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &OpenError{method, rawURL, fmt.Errorf("missing host")}
	}
	return u, nil
}
