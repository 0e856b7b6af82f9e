// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "net/http"

// StatusClassifier classifies an HTTP status code into ranges and
// well-known named statuses. It is implemented by Status, which is
// embedded into both Response and Error.
type StatusClassifier interface {
	Info() bool
	OK() bool
	Redirect() bool
	ClientError() bool
	ServerError() bool
	IsError() bool

	Created() bool
	Accepted() bool
	NoContent() bool
	BadRequest() bool
	Unauthorized() bool
	NotAcceptable() bool
	Forbidden() bool
	NotFound() bool
	UnprocessableEntity() bool
}

// Status is an HTTP status code. The zero value means no status is
// known, for example because the attempt never received a response.
type Status int

// LegacyNoContent is the status code some user agents report in place
// of 204 No Content. Responses normalize it to http.StatusNoContent.
const LegacyNoContent = 1223

// NormalizeStatus remaps LegacyNoContent to 204 and returns every other
// code unchanged.
func NormalizeStatus(code int) Status {
	if code == LegacyNoContent {
		return http.StatusNoContent
	}
	return Status(code)
}

// Class returns the hundreds digit of the status code, so 404 has
// class 4.
func (s Status) Class() int {
	return int(s) / 100
}

// Known reports whether s is a non-zero status code.
func (s Status) Known() bool { return s != 0 }

func (s Status) Info() bool        { return s.Class() == 1 }
func (s Status) OK() bool          { return s.Class() == 2 }
func (s Status) Redirect() bool    { return s.Class() == 3 }
func (s Status) ClientError() bool { return s.Class() == 4 }
func (s Status) ServerError() bool { return s.Class() == 5 }

// IsError reports whether s is a client or server error status.
func (s Status) IsError() bool { return s.ClientError() || s.ServerError() }

func (s Status) Created() bool             { return s == http.StatusCreated }
func (s Status) Accepted() bool            { return s == http.StatusAccepted }
func (s Status) NoContent() bool           { return s == http.StatusNoContent }
func (s Status) BadRequest() bool          { return s == http.StatusBadRequest }
func (s Status) Unauthorized() bool        { return s == http.StatusUnauthorized }
func (s Status) NotAcceptable() bool       { return s == http.StatusNotAcceptable }
func (s Status) Forbidden() bool           { return s == http.StatusForbidden }
func (s Status) NotFound() bool            { return s == http.StatusNotFound }
func (s Status) UnprocessableEntity() bool { return s == http.StatusUnprocessableEntity }

var _ StatusClassifier = Status(0)
