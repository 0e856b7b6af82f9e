// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gogama/agent/request"
)

type formField struct {
	name, value string
}

type formFile struct {
	field    string
	content  interface{}
	filename string
}

type multipartForm struct {
	fields []formField
	files  []formFile
}

// isHost reports whether v is an opaque payload which is sent without
// serialization.
func isHost(v interface{}) bool {
	switch v.(type) {
	case []byte, io.Reader:
		return true
	default:
		return false
	}
}

// asObject returns v as a generic object if it is a map with string
// keys.
func asObject(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]string:
		obj := make(map[string]interface{}, len(m))
		for k, x := range m {
			obj[k] = x
		}
		return obj, true
	default:
		return nil, false
	}
}

// finalize freezes the query string, headers and body into a plan. It
// always returns a non-nil plan, so that an error can be reported
// against the request's method and URL.
func (r *Request) finalize() (*request.Plan, error) {
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	url := request.JoinQuery(r.url, strings.Join(r.queryParts, "&"), r.sortQuery)
	p, _ := request.NewPlanWithContext(ctx, r.method, url, nil)
	p.Header = r.header.Clone()
	p.ResponseType = r.responseType
	p.Credentials = r.cred
	body, err := r.negotiate(p.Method, p.Header)
	if err != nil {
		return p, err
	}
	p.Body = body
	return p, nil
}

// negotiate produces the wire body, adding a default Content-Type to h
// where one is needed and none is present.
func (r *Request) negotiate(method string, h *request.Header) ([]byte, error) {
	if r.form != nil {
		return r.form.encode(h)
	}
	if !r.bodySet {
		return nil, nil
	}
	if _, ok := r.body.(string); ok || isHost(r.body) {
		b, err := request.BodyBytes(r.body)
		if err != nil {
			return nil, err
		}
		if len(b) > 0 && !h.Has("Content-Type") {
			h.Set("Content-Type", mimetype.Detect(b).String())
		}
		return b, nil
	}
	if method == "GET" || method == "HEAD" {
		return nil, nil
	}
	ct, _ := h.Get("Content-Type")
	s := r.serializer
	if s == nil {
		s, _ = r.agent.registry().SerializerFor(ct)
	}
	if s == nil {
		return nil, fmt.Errorf("agent: no serializer for %T body with Content-Type %q", r.body, ct)
	}
	return s(r.body)
}

func (f *multipartForm) encode(h *request.Header) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, err
		}
	}
	for _, file := range f.files {
		b, err := request.BodyBytes(file.content)
		if err != nil {
			return nil, err
		}
		ph := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(file.field))
		if file.filename != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, escapeQuotes(file.filename))
		}
		ph.Set("Content-Disposition", disposition)
		ph.Set("Content-Type", mimetype.Detect(b).String())
		part, err := w.CreatePart(ph)
		if err != nil {
			return nil, err
		}
		if _, err = part.Write(b); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if !h.Has("Content-Type") {
		h.Set("Content-Type", w.FormDataContentType())
	}
	return buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
