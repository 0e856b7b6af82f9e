// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/gogama/agent/transport"
)

// New returns a factory for xhr adapters which share client. A nil
// client means a new resty client with retries disabled. Retries are
// the lifecycle's job, so a client passed in should not retry either.
func New(client *resty.Client) transport.Factory {
	if client == nil {
		client = resty.New().
			SetRetryCount(0).
			SetDisableWarn(true).
			SetAllowGetMethodPayload(true)
	}
	return func() transport.Adapter {
		return &Adapter{client: client}
	}
}

// Adapter is the xhr transport adapter. Obtain adapters from a Factory
// returned by New.
type Adapter struct {
	client *resty.Client

	method       string
	url          string
	cred         *transport.Credentials
	header       map[string]string
	responseType string

	mu       sync.Mutex
	cancel   context.CancelFunc
	aborted  bool
	terminal bool
}

func (a *Adapter) Open(method, rawURL string, cred *transport.Credentials) error {
	u, err := transport.ValidateOpen(method, rawURL)
	if err != nil {
		return err
	}
	a.method, a.url, a.cred = strings.ToUpper(method), u.String(), cred
	a.header = make(map[string]string)
	return nil
}

// SetHeader sets a request header. As with XMLHttpRequest, setting the
// same name twice combines the values.
func (a *Adapter) SetHeader(name, value string) {
	key := http.CanonicalHeaderKey(name)
	if prev, ok := a.header[key]; ok {
		value = prev + ", " + value
	}
	a.header[key] = value
}

// SetResponseType sets the response type. Types other than "" and
// "text" make the response text unavailable.
func (a *Adapter) SetResponseType(t string) {
	a.responseType = t
}

func (a *Adapter) Capabilities() transport.Capability {
	return transport.ResponseType | transport.RawHeader
}

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

func (a *Adapter) Send(body []byte, emit transport.Sink) {
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

func (a *Adapter) run(ctx context.Context, body []byte, emit transport.Sink) {
	req := a.client.R().
		SetContext(ctx).
		SetHeaders(a.header)
	if len(body) > 0 {
		req.SetBody(body)
	}
	if a.cred != nil {
		req.SetBasicAuth(a.cred.Username, a.cred.Password)
	}

	resp, err := req.Execute(a.method, a.url)
	if err != nil {
		// XMLHttpRequest reports every failure to get a response as a
		// completed exchange with status zero.
		a.finish(emit, transport.Event{
			Kind:       transport.SuccessEvent,
			Completion: &transport.Completion{TextUnavailable: !a.textual()},
		})
		return
	}
	emit(transport.Event{Kind: transport.UploadDoneEvent})
	emit(transport.Event{Kind: transport.HeadersEvent, Status: resp.StatusCode()})

	b := resp.Body()
	emit(transport.Event{
		Kind:     transport.ProgressEvent,
		Progress: transport.NewProgress(transport.Download, int64(len(b)), int64(len(b))),
	})
	a.finish(emit, transport.Event{
		Kind: transport.SuccessEvent,
		Completion: &transport.Completion{
			Status:          resp.StatusCode(),
			StatusText:      statusText(resp.Status(), resp.StatusCode()),
			RawHeader:       RawHeader(resp.Header()),
			ContentType:     resp.Header().Get("Content-Type"),
			Body:            b,
			TextUnavailable: !a.textual(),
		},
	})
}

func (a *Adapter) textual() bool {
	return a.responseType == "" || a.responseType == "text"
}

func statusText(status string, code int) string {
	return strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
}

// RawHeader formats h the way XMLHttpRequest.getAllResponseHeaders
// does: one lower-case "name: value" line per field, sorted by name,
// each terminated by CRLF, with repeated values joined by ", ".
func RawHeader(h http.Header) string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(strings.ToLower(name))
		b.WriteString(": ")
		b.WriteString(strings.Join(h[name], ", "))
		b.WriteString("\r\n")
	}
	return b.String()
}
