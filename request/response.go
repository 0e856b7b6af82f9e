// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gogama/agent/codec"
	"github.com/gogama/agent/transport"
	"golang.org/x/net/html/charset"
)

// A Response is the materialized result of one request attempt which
// received a response. It is built once per attempt and only Success
// changes afterwards.
type Response struct {
	// Status is the normalized response status code.
	Status

	StatusText string

	// Header holds the response header fields keyed by lower-case
	// name. When a field is repeated the last occurrence wins, except
	// for http.Header inputs whose values are joined with ", ".
	Header map[string]string

	// Type is the media type of the response without parameters, for
	// example "application/json".
	Type string

	// Params holds the Content-Type parameters, such as charset.
	Params map[string]string

	// Links holds the URLs of the Link header keyed by rel.
	Links map[string]string

	// Text is the response body decoded to UTF-8. It is only
	// meaningful if HasText is true.
	Text    string
	HasText bool

	// Body is the parsed response body, or nil if the method is HEAD,
	// the body is empty, or no parser applies. If the body is not
	// available as text but a response type was requested, Body holds
	// the raw payload instead.
	Body interface{}

	// Raw is the undecoded response payload.
	Raw []byte

	// Plan is the plan whose execution produced the response.
	Plan *Plan

	// Success holds the verdict of the success predicate, set once the
	// predicate has run. While it is nil, OK falls back to the status.
	Success *bool
}

// OK reports whether the response was judged a success. A custom
// success predicate overrides the 2xx status rule.
func (r *Response) OK() bool {
	if r.Success != nil {
		return *r.Success
	}
	return r.Status.OK()
}

// Charset returns the charset parameter of the Content-Type, or "".
func (r *Response) Charset() string {
	return r.Params["charset"]
}

// Get returns the value of the header field name, matched without
// regard to case.
func (r *Response) Get(name string) string {
	return r.Header[strings.ToLower(name)]
}

// ToError returns an error describing the response, in the form
// "cannot GET http://example.com (404)".
func (r *Response) ToError() *Error {
	e := &Error{
		Kind:   KindHTTP,
		Status: r.Status,
	}
	if r.Plan != nil {
		e.Method, e.URL = r.Plan.Method, r.Plan.URL
	}
	e.Message = fmt.Sprintf("cannot %s %s (%d)", e.Method, e.URL, int(r.Status))
	e.Response = r
	return e
}

// Materialize builds the Response for a completed attempt of plan p.
//
// The parser used for the body is override, if not nil, and otherwise
// the registry's parser for the response media type. If parsing fails,
// Materialize returns the partially built response (with a nil Body)
// and the parser's error.
func Materialize(p *Plan, c *transport.Completion, reg *codec.Registry, override codec.Parser) (*Response, error) {
	r := &Response{
		Status:     NormalizeStatus(c.Status),
		StatusText: c.StatusText,
		Raw:        c.Body,
		Plan:       p,
	}

	if c.Header != nil {
		r.Header = flattenHeader(c.Header)
	} else {
		r.Header = ParseRawHeader(c.RawHeader)
	}
	if c.ContentType != "" {
		r.Header["content-type"] = c.ContentType
	}
	r.Type, r.Params = parseContentType(r.Header["content-type"])
	if link, ok := r.Header["link"]; ok {
		r.Links = ParseLinks(link)
	}

	head := p.IsHead()
	r.HasText = !head && !c.TextUnavailable
	if r.HasText {
		r.Text = decodeText(c.Body, r.Params["charset"])
	}

	switch {
	case head:
		return r, nil
	case !r.HasText && p.ResponseType != "":
		if p.ResponseType == "json" {
			r.Body, _ = codec.ParseJSON(c.Body)
		} else if len(c.Body) > 0 {
			r.Body = c.Body
		}
		return r, nil
	}

	parse := override
	if parse == nil && reg != nil {
		parse, _ = reg.ParserFor(r.Type)
	}
	data := []byte(r.Text)
	if !r.HasText {
		data = c.Body
	}
	if parse == nil || len(data) == 0 {
		return r, nil
	}
	body, err := parse(data)
	if err != nil {
		return r, err
	}
	r.Body = body
	return r, nil
}

func flattenHeader(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for name, values := range h {
		m[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return m
}

// ParseRawHeader parses a header block of "Name: value" lines. Lines
// without a colon are skipped, names are lower-cased, values are
// trimmed, and when a name repeats the last value wins.
func ParseRawHeader(raw string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:i]))
		m[name] = strings.TrimSpace(line[i+1:])
	}
	return m
}

func parseContentType(ct string) (string, map[string]string) {
	if ct == "" {
		return "", map[string]string{}
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return codec.Essence(ct), map[string]string{}
	}
	return mediaType, params
}

// ParseLinks parses a Link header into a map from each link's rel to
// its URL. Links without a rel parameter are ignored.
func ParseLinks(s string) map[string]string {
	links := make(map[string]string)
	for _, link := range strings.Split(s, ",") {
		parts := strings.Split(link, ";")
		u := strings.TrimSpace(parts[0])
		u = strings.TrimSuffix(strings.TrimPrefix(u, "<"), ">")
		for _, param := range parts[1:] {
			kv := strings.SplitN(param, "=", 2)
			if len(kv) == 2 && strings.TrimSpace(kv[0]) == "rel" {
				rel := strings.Trim(strings.TrimSpace(kv[1]), `"`)
				links[rel] = u
			}
		}
	}
	return links
}

func decodeText(body []byte, label string) string {
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return string(body)
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(b)
}
