// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gogama/agent/transient"
)

// Kind classifies an Error.
type Kind int

const (
	// KindOpen means the request could not be prepared or the
	// transport rejected the method or URL. It is never retried.
	KindOpen Kind = iota + 1
	// KindNetwork means the attempt failed without a usable status,
	// for example because the connection was refused or the network
	// is offline.
	KindNetwork
	// KindTimeout means a timeout timer fired.
	KindTimeout
	// KindParse means the response body could not be parsed. It is
	// never retried.
	KindParse
	// KindHTTP means a response was received but was not accepted as
	// ok.
	KindHTTP
	// KindAborted means the request was aborted by the caller.
	KindAborted
)

var kindNames = []string{
	KindOpen:    "open",
	KindNetwork: "network",
	KindTimeout: "timeout",
	KindParse:   "parse",
	KindHTTP:    "http",
	KindAborted: "aborted",
}

func (k Kind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Phase identifies which timeout timer fired.
type Phase int

const (
	// Overall limits the entire attempt, from dispatch until the
	// response body is read.
	Overall Phase = iota + 1
	// ResponsePhase limits the wait for response headers.
	ResponsePhase
	// UploadPhase limits the time spent sending the request body.
	UploadPhase
)

func (p Phase) String() string {
	switch p {
	case Overall:
		return "overall"
	case ResponsePhase:
		return "response"
	case UploadPhase:
		return "upload"
	default:
		return ""
	}
}

// Error codes carried by Error.Code and Error.Errno.
const (
	ECONNABORTED    = "ECONNABORTED"
	ECONNRESET      = "ECONNRESET"
	ECONNREFUSED    = "ECONNREFUSED"
	ETIME           = "ETIME"
	ETIMEDOUT       = "ETIMEDOUT"
	EADDRINFO       = "EADDRINFO"
	ENOTFOUND       = "ENOTFOUND"
	ESOCKETTIMEDOUT = "ESOCKETTIMEDOUT"
)

const (
	// CrossDomainMessage is the message of an error raised when an
	// attempt completes with status zero.
	CrossDomainMessage = "Request has been terminated\nPossible causes: the network is offline, " +
		"Origin is not allowed by Access-Control-Allow-Origin, the page is being unloaded, etc."
	// AbortedBeforeEndMessage is the message of the error delivered when
	// a request is aborted before it is ended.
	AbortedBeforeEndMessage = "The request has been aborted even before .end() was called"
	// AbortedMessage is the message of the error delivered when a
	// request is aborted while in flight.
	AbortedMessage = "Request has been aborted"
	// ParseMessage is the message of a KindParse error.
	ParseMessage = "Parser is unable to parse the response"
	// UnsuccessfulMessage is the message of a KindHTTP error when the
	// response has neither status text nor body text.
	UnsuccessfulMessage = "Unsuccessful HTTP response"
)

// Error is the error delivered for every failed request execution.
//
// The embedded Status is the last status reported by the transport, or
// zero if none was. Response is set for KindHTTP errors and, when the
// ok predicate panicked, for KindHTTP errors wrapping the panic.
type Error struct {
	Status

	Kind    Kind
	Method  string
	URL     string
	Message string

	// Retries is the number of retries consumed before the error was
	// delivered. It is only set when retries were configured.
	Retries int

	// CrossDomain is true when the attempt completed with status zero
	// and no abort or timeout explains it.
	CrossDomain bool

	// Phase and Elapsed describe a KindTimeout error.
	Phase   Phase
	Elapsed time.Duration

	// Code and Errno are Node.js-style error codes, such as
	// ECONNABORTED and ETIMEDOUT.
	Code  string
	Errno string

	// Original is the underlying error, if any.
	Original error

	// RawResponse holds the unparsed payload of a KindParse error.
	RawResponse string

	Response *Response
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Original
}

// Timeout reports whether e is a timeout error, or wraps an error
// which is categorized as a timeout.
func (e *Error) Timeout() bool {
	return e.Kind == KindTimeout || transient.Categorize(e.Original) == transient.Timeout
}

// Connectivity reports whether e was caused by a status zero
// completion.
func (e *Error) Connectivity() bool {
	return e.CrossDomain
}

func newError(p *Plan, kind Kind, msg string) *Error {
	e := &Error{Kind: kind, Message: msg}
	if p != nil {
		e.Method, e.URL = p.Method, p.URL
	}
	return e
}

// NewOpenError returns a KindOpen error wrapping err.
func NewOpenError(p *Plan, err error) *Error {
	e := newError(p, KindOpen, err.Error())
	e.Original = err
	return e
}

// NewAbortError returns a KindAborted error. If beforeEnd is true, the
// message reports that the request was aborted before it was ended.
func NewAbortError(p *Plan, beforeEnd bool) *Error {
	msg := AbortedMessage
	if beforeEnd {
		msg = AbortedBeforeEndMessage
	}
	e := newError(p, KindAborted, msg)
	e.Code = ECONNABORTED
	return e
}

// NewTimeoutError returns a KindTimeout error for the given phase and
// limit. The status is the last status reported by the transport.
func NewTimeoutError(p *Plan, phase Phase, limit time.Duration, status Status) *Error {
	var prefix, errno string
	switch phase {
	case ResponsePhase:
		prefix, errno = "Response timeout of ", ETIMEDOUT
	case UploadPhase:
		prefix, errno = "Upload timeout of ", ETIMEDOUT
	default:
		prefix, errno = "Timeout of ", ETIME
	}
	e := newError(p, KindTimeout, fmt.Sprintf("%s%dms exceeded", prefix, limit.Milliseconds()))
	e.Status = status
	e.Phase = phase
	e.Elapsed = limit
	e.Code = ECONNABORTED
	e.Errno = errno
	return e
}

// NewCrossDomainError returns the connectivity error raised when an
// attempt completes with status zero.
func NewCrossDomainError(p *Plan) *Error {
	e := newError(p, KindNetwork, CrossDomainMessage)
	e.CrossDomain = true
	return e
}

// NewNetworkError returns a KindNetwork error wrapping a transport
// error. Code is derived from the error's category.
func NewNetworkError(p *Plan, err error) *Error {
	e := newError(p, KindNetwork, err.Error())
	e.Original = err
	e.Code = codeOf(err)
	return e
}

// NewParseError returns a KindParse error for a response whose body
// could not be parsed.
func NewParseError(p *Plan, r *Response, err error) *Error {
	e := newError(p, KindParse, ParseMessage)
	e.Original = err
	if r != nil {
		e.RawResponse = string(r.Raw)
		e.Status = r.Status
	}
	return e
}

// NewHTTPError returns a KindHTTP error for a response which was not
// accepted as ok. If cause is nil, the message is the status text,
// else the response text, else UnsuccessfulMessage. If cause is not
// nil, its message is used and it becomes Original.
func NewHTTPError(p *Plan, r *Response, cause error) *Error {
	var msg string
	switch {
	case cause != nil:
		msg = cause.Error()
	case r.StatusText != "":
		msg = r.StatusText
	case r.HasText && r.Text != "":
		msg = r.Text
	default:
		msg = UnsuccessfulMessage
	}
	e := newError(p, KindHTTP, msg)
	e.Original = cause
	e.Response = r
	e.Status = r.Status
	return e
}

func codeOf(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return ENOTFOUND
		}
		return EADDRINFO
	}
	switch transient.Categorize(err) {
	case transient.Timeout:
		return ETIMEDOUT
	case transient.ConnRefused:
		return ECONNREFUSED
	case transient.ConnReset:
		return ECONNRESET
	default:
		return ""
	}
}
