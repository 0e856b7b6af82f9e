// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/agent/transient"
	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "open", KindOpen.String())
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "aborted", KindAborted.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "overall", Overall.String())
	assert.Equal(t, "response", ResponsePhase.String())
	assert.Equal(t, "upload", UploadPhase.String())
	assert.Equal(t, "", Phase(0).String())
}

func TestNewTimeoutError(t *testing.T) {
	p := &Plan{Method: "GET", URL: "http://x"}
	testCases := []struct {
		phase   Phase
		message string
		errno   string
	}{
		{Overall, "Timeout of 10ms exceeded", ETIME},
		{ResponsePhase, "Response timeout of 250ms exceeded", ETIMEDOUT},
		{UploadPhase, "Upload timeout of 1500ms exceeded", ETIMEDOUT},
	}
	limits := []time.Duration{10 * time.Millisecond, 250 * time.Millisecond, 1500 * time.Millisecond}
	for i, testCase := range testCases {
		t.Run(testCase.phase.String(), func(t *testing.T) {
			err := NewTimeoutError(p, testCase.phase, limits[i], 0)
			assert.EqualError(t, err, testCase.message)
			assert.Equal(t, KindTimeout, err.Kind)
			assert.Equal(t, testCase.phase, err.Phase)
			assert.Equal(t, limits[i], err.Elapsed)
			assert.Equal(t, ECONNABORTED, err.Code)
			assert.Equal(t, testCase.errno, err.Errno)
			assert.False(t, err.Known())
			assert.True(t, err.Timeout())
			assert.Equal(t, transient.Timeout, transient.Categorize(err))
		})
	}
}

func TestNewCrossDomainError(t *testing.T) {
	err := NewCrossDomainError(&Plan{Method: "GET", URL: "http://x"})

	assert.Equal(t, CrossDomainMessage, err.Error())
	assert.True(t, err.CrossDomain)
	assert.Equal(t, KindNetwork, err.Kind)
	assert.Equal(t, "GET", err.Method)
	assert.Equal(t, "http://x", err.URL)
	assert.Equal(t, transient.Connectivity, transient.Categorize(err))
}

func TestNewNetworkError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code string
	}{
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, ECONNRESET},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ECONNREFUSED},
		{"timeout", syscall.ETIMEDOUT, ETIMEDOUT},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, ENOTFOUND},
		{"dns other", &net.DNSError{Err: "server misbehaving"}, EADDRINFO},
		{"other", errors.New("foo"), ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := NewNetworkError(nil, testCase.err)
			assert.Equal(t, KindNetwork, err.Kind)
			assert.Equal(t, testCase.code, err.Code)
			assert.Equal(t, testCase.err, errors.Unwrap(err))
			assert.ErrorIs(t, err, testCase.err)
			assert.Equal(t, testCase.err.Error(), err.Error())
		})
	}
}

func TestNewParseError(t *testing.T) {
	boom := errors.New("boom")
	r := &Response{Status: 200, Raw: []byte("{bad")}

	err := NewParseError(&Plan{Method: "GET"}, r, boom)

	assert.EqualError(t, err, ParseMessage)
	assert.Equal(t, KindParse, err.Kind)
	assert.Equal(t, "{bad", err.RawResponse)
	assert.Equal(t, Status(200), err.Status)
	assert.True(t, errors.Is(err, boom))
}

func TestNewHTTPError(t *testing.T) {
	p := &Plan{Method: "GET", URL: "http://x"}
	t.Run("status text", func(t *testing.T) {
		r := &Response{Status: 404, StatusText: "Not Found", Text: "missing", HasText: true}
		err := NewHTTPError(p, r, nil)
		assert.EqualError(t, err, "Not Found")
		assert.Equal(t, Status(404), err.Status)
		assert.True(t, err.NotFound())
		assert.Same(t, r, err.Response)
	})
	t.Run("text", func(t *testing.T) {
		r := &Response{Status: 500, Text: "kaboom", HasText: true}
		assert.EqualError(t, NewHTTPError(p, r, nil), "kaboom")
	})
	t.Run("neither", func(t *testing.T) {
		r := &Response{Status: 500}
		assert.EqualError(t, NewHTTPError(p, r, nil), UnsuccessfulMessage)
	})
	t.Run("cause", func(t *testing.T) {
		cause := errors.New("ok predicate exploded")
		r := &Response{Status: 200, StatusText: "OK"}
		err := NewHTTPError(p, r, cause)
		assert.EqualError(t, err, "ok predicate exploded")
		assert.Same(t, cause, err.Original)
		assert.Equal(t, Status(200), err.Status)
	})
}

func TestNewAbortError(t *testing.T) {
	assert.EqualError(t, NewAbortError(nil, true), AbortedBeforeEndMessage)
	err := NewAbortError(&Plan{Method: "PUT"}, false)
	assert.EqualError(t, err, AbortedMessage)
	assert.Equal(t, KindAborted, err.Kind)
	assert.Equal(t, "PUT", err.Method)
	assert.False(t, err.Timeout())
}
