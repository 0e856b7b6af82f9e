// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package socket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gogama/agent/transport"
	"golang.org/x/net/http/httpguts"
)

// An HTTPDoer executes HTTP requests. It is implemented by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// AcceptEncoding is the Accept-Encoding value sent when the caller does
// not set one.
const AcceptEncoding = "gzip, deflate, zstd"

// New returns a factory for socket adapters which send requests using
// doer. A nil doer means http.DefaultClient.
func New(doer HTTPDoer) transport.Factory {
	if doer == nil {
		doer = http.DefaultClient
	}
	return func() transport.Adapter {
		return &Adapter{doer: doer}
	}
}

// Adapter is the socket transport adapter. Obtain adapters from a
// Factory returned by New.
type Adapter struct {
	doer HTTPDoer

	method  string
	url     *url.URL
	cred    *transport.Credentials
	header  http.Header
	badName string

	mu       sync.Mutex
	cancel   context.CancelFunc
	aborted  bool
	terminal bool
}

// Open validates the method and URL.
func (a *Adapter) Open(method, rawURL string, cred *transport.Credentials) error {
	u, err := transport.ValidateOpen(method, rawURL)
	if err != nil {
		return err
	}
	a.method, a.url, a.cred = method, u, cred
	a.header = make(http.Header)
	return nil
}

// SetHeader sets a request header. An invalid field name or value
// causes the attempt to fail with a network error when sent.
func (a *Adapter) SetHeader(name, value string) {
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		if a.badName == "" {
			a.badName = name
		}
		return
	}
	a.header[http.CanonicalHeaderKey(name)] = []string{value}
}

func (a *Adapter) Capabilities() transport.Capability {
	return transport.UploadProgress | transport.DownloadProgress | transport.EarlyHeaders
}

// Abort cancels the attempt.
func (a *Adapter) Abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.terminal || a.aborted {
		return
	}
	a.aborted = true
	if a.cancel != nil {
		a.cancel()
	}
}

// Send starts the attempt on a new goroutine.
func (a *Adapter) Send(body []byte, emit transport.Sink) {
	emit = serialize(emit)
	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancel = cancel
	aborted := a.aborted
	a.mu.Unlock()
	if aborted {
		cancel()
		go a.finish(emit, transport.Event{Kind: transport.AbortEvent})
		return
	}
	go a.run(ctx, body, emit)
}

func (a *Adapter) finish(emit transport.Sink, ev transport.Event) {
	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return
	}
	a.terminal = true
	if a.aborted {
		ev = transport.Event{Kind: transport.AbortEvent}
	}
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		defer cancel()
	}
	emit(ev)
}

func (a *Adapter) isAborted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aborted
}

func (a *Adapter) fail(emit transport.Sink, err error) {
	if a.isAborted() {
		a.finish(emit, transport.Event{Kind: transport.AbortEvent})
		return
	}
	a.finish(emit, transport.Event{Kind: transport.NetworkErrorEvent, Err: err})
}

func (a *Adapter) run(ctx context.Context, body []byte, emit transport.Sink) {
	if a.badName != "" {
		a.fail(emit, fmt.Errorf("agent/socket: invalid header field %q", a.badName))
		return
	}

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = &progressReader{
			r:     bytes.NewReader(body),
			total: int64(len(body)),
			dir:   transport.Upload,
			emit:  emit,
			done:  func() { emit(transport.Event{Kind: transport.UploadDoneEvent}) },
		}
	}
	req, err := http.NewRequestWithContext(ctx, a.method, a.url.String(), reqBody)
	if err != nil {
		a.fail(emit, err)
		return
	}
	if reqBody != nil {
		req.ContentLength = int64(len(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	req.Header = a.header
	if a.cred != nil {
		req.SetBasicAuth(a.cred.Username, a.cred.Password)
	}
	decode := false
	if req.Header.Get("Accept-Encoding") == "" && a.method != http.MethodHead {
		req.Header.Set("Accept-Encoding", AcceptEncoding)
		decode = true
	}
	if reqBody == nil {
		emit(transport.Event{Kind: transport.UploadDoneEvent})
	}

	resp, err := a.doer.Do(req)
	if err != nil {
		a.fail(emit, err)
		return
	}
	defer resp.Body.Close()
	emit(transport.Event{Kind: transport.HeadersEvent, Status: resp.StatusCode})

	var r io.Reader = &progressReader{
		r:     resp.Body,
		total: resp.ContentLength,
		dir:   transport.Download,
		emit:  emit,
	}
	if decode {
		if enc := resp.Header.Get("Content-Encoding"); enc != "" {
			dr, err := newDecoder(enc, r)
			if err != nil {
				a.fail(emit, err)
				return
			}
			defer dr.Close()
			r = dr
			resp.Header.Del("Content-Encoding")
			resp.Header.Del("Content-Length")
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		a.fail(emit, err)
		return
	}

	a.finish(emit, transport.Event{
		Kind: transport.SuccessEvent,
		Completion: &transport.Completion{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Header:     resp.Header,
			Body:       b,
		},
	})
}

// serialize makes emit safe for the request body writer goroutine and
// drops anything emitted after the terminal event.
func serialize(emit transport.Sink) transport.Sink {
	var mu sync.Mutex
	closed := false
	return func(ev transport.Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		closed = ev.Kind.Terminal()
		emit(ev)
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	dir    transport.Direction
	emit   transport.Sink
	done   func()
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.emit(transport.Event{
			Kind:     transport.ProgressEvent,
			Progress: transport.NewProgress(p.dir, p.loaded, p.total),
		})
	}
	if err == io.EOF && p.done != nil {
		p.done()
		p.done = nil
	}
	return n, err
}
