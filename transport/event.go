// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net/http"
)

// Direction tells whether a Progress event is about the request body or
// the response body.
type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// Progress reports bytes transferred in one direction.
type Progress struct {
	Direction Direction
	Loaded    int64
	// Total is the expected number of bytes, or zero if unknown.
	Total int64
	// Percent is Loaded as a percentage of Total. It is only
	// meaningful when Total is greater than zero.
	Percent float64
}

// NewProgress returns a Progress with Percent computed from loaded and
// total.
func NewProgress(d Direction, loaded, total int64) Progress {
	p := Progress{Direction: d, Loaded: loaded, Total: total}
	if total > 0 {
		p.Percent = float64(loaded) / float64(total) * 100
	}
	return p
}

// Computable reports whether the percentage is known.
func (p Progress) Computable() bool {
	return p.Total > 0
}

// An EventKind identifies the type of an Event.
type EventKind int

const (
	// ProgressEvent carries a Progress value.
	ProgressEvent EventKind = iota
	// HeadersEvent carries the status code once response headers
	// are received.
	HeadersEvent
	// UploadDoneEvent signals the request body has been fully sent.
	UploadDoneEvent
	// SuccessEvent is terminal and carries a Completion.
	SuccessEvent
	// NetworkErrorEvent is terminal and carries the error.
	NetworkErrorEvent
	// AbortEvent is terminal and signals the attempt was aborted.
	AbortEvent
)

var eventKindNames = []string{
	ProgressEvent:     "progress",
	HeadersEvent:      "headers",
	UploadDoneEvent:   "uploadDone",
	SuccessEvent:      "success",
	NetworkErrorEvent: "networkError",
	AbortEvent:        "abort",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Terminal reports whether k ends an attempt.
func (k EventKind) Terminal() bool {
	return k >= SuccessEvent
}

// An Event is something that happened during a request attempt. Only
// the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind
	Progress   Progress
	Status     int
	Completion *Completion
	Err        error
}

// A Sink receives the events of one attempt.
type Sink func(Event)

// Completion is the result of an attempt which reached the server and
// read a response, or in the case of XHR semantics, an attempt which
// completed with status zero.
type Completion struct {
	// Status is the status code as reported by the transport. It may
	// be zero, or a legacy value such as 1223.
	Status     int
	StatusText string

	// Header is the parsed response header. It is nil if the adapter
	// reports RawHeader instead.
	Header http.Header

	// RawHeader is the response header block as text, one
	// "Name: value" field per CRLF-terminated line.
	RawHeader string

	// ContentType is the Content-Type as read directly from the
	// transport. It is used if the header does not contain one.
	ContentType string

	Body []byte

	// TextUnavailable is true when the body can not be read as text,
	// for example because a binary response type was requested.
	TextUnavailable bool
}
