// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gogama/agent/codec"
	"github.com/gogama/agent/query"
	"github.com/gogama/agent/request"
	"github.com/gogama/agent/retry"
	"github.com/gogama/agent/timeout"
	"github.com/gogama/agent/transport"
	"go.uber.org/zap"
)

const (
	mixSendAttachMsg = "agent: can't mix .Send() and .Attach()"
	mergeSendMsg     = "agent: can't merge these send calls"
	nilCtxMsg        = "agent: nil context"
)

// State is the lifecycle state of a Request.
type State int

const (
	// Building is the state of a request which has not been ended.
	Building State = iota
	// Finalized is the state of a request whose query string, headers
	// and body have been frozen, but which has not been dispatched.
	Finalized
	// Dispatching is the state of a request with an attempt in flight
	// or a retry pending.
	Dispatching
	// Completed is the state of a request whose outcome has been
	// delivered.
	Completed
	// Aborted is the state of a request which was aborted.
	Aborted
)

var stateNames = []string{"Building", "Finalized", "Dispatching", "Completed", "Aborted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// A Callback receives the outcome of a request. Exactly one of err and
// res is non-nil.
type Callback func(err error, res *request.Response)

// A Request is a fluent, single-use HTTP request builder. Create one
// with a verb constructor, configure it by chaining builder methods,
// then call End or Do.
//
// Builder methods are not safe for concurrent use. Abort and State may
// be called from any goroutine.
type Request struct {
	agent  *Agent
	method string
	url    string

	header     *request.Header
	queryParts []string
	sortQuery  bool

	body    interface{}
	bodySet bool
	form    *multipartForm

	serializer   codec.Serializer
	parser       codec.Parser
	responseType string
	cred         *transport.Credentials

	retrySet bool
	retries  int
	deciders []retry.Decider

	timeoutsSet bool
	timeouts    timeout.Set

	ok       func(*request.Response) bool
	handlers HandlerGroup
	ctx      context.Context
	err      error

	mu      sync.Mutex
	state   State
	plan    *request.Plan
	cancel  context.CancelFunc
	aborted bool
}

func newRequest(a *Agent, method, url string) *Request {
	return &Request{
		agent:  a,
		method: strings.ToUpper(method),
		url:    url,
		header: a.Header.Clone(),
	}
}

// Method returns the request method.
func (r *Request) Method() string { return r.method }

// URL returns the request URL as given to the constructor, without the
// accumulated query string.
func (r *Request) URL() string { return r.url }

// Header returns the request header fields accumulated so far.
func (r *Request) Header() *request.Header { return r.header }

// State returns the current lifecycle state.
func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Type sets the Content-Type header. The value may be a registry alias
// such as "json" or "form", or a full MIME type.
func (r *Request) Type(t string) *Request {
	return r.Set("Content-Type", r.agent.registry().ResolveMime(t))
}

// Accept sets the Accept header. The value may be a registry alias or a
// full MIME type.
func (r *Request) Accept(t string) *Request {
	return r.Set("Accept", r.agent.registry().ResolveMime(t))
}

// Set sets a header field, replacing any previous value for the same
// case-insensitive name.
func (r *Request) Set(name, value string) *Request {
	r.header.Set(name, value)
	return r
}

// Suppress marks a header field as suppressed. A suppressed field is
// never sent, but it still blocks default values for the same name,
// such as the Content-Type chosen by Send or a sniffed body type.
func (r *Request) Suppress(name string) *Request {
	r.header.Suppress(name)
	return r
}

// Unset removes a header field entirely.
func (r *Request) Unset(name string) *Request {
	r.header.Del(name)
	return r
}

// Query appends a fragment to the query string.
//
// A string is appended verbatim. Any other value is encoded with
// query.Encode: map keys are emitted in sorted order, slices repeat the
// key, nested maps produce bracketed sub-keys and nil values produce a
// bare key. Use query.Ordered to control the order of pairs. Fragments
// are joined with "&" when the request is ended.
//
// An encoding error is reported as the request's outcome when it is
// ended.
func (r *Request) Query(v interface{}) *Request {
	var s string
	if str, ok := v.(string); ok {
		s = str
	} else {
		var err error
		if s, err = query.Encode(v); err != nil {
			r.fail(err)
			return r
		}
	}
	if s != "" {
		r.queryParts = append(r.queryParts, s)
	}
	return r
}

// SortQuery sorts the pairs of the final query string, including any
// pairs already present in the URL.
func (r *Request) SortQuery() *Request {
	r.sortQuery = true
	return r
}

// Send sets or extends the request body.
//
// A string sets the Content-Type to "form" unless one is present, and
// is joined with a previously sent string: with "&" if the type is
// form, by concatenation otherwise. A []byte or io.Reader is sent as
// is. A map with string keys is merged into a previously sent map, and
// any other structured value replaces the body. Structured values set
// the Content-Type to "json" unless one is present, and are serialized
// when the request is ended. Ending fails with an open error if no
// serializer matches the Content-Type. GET and HEAD requests drop
// structured bodies.
//
// Send panics if Attach or Field was called, or if a structured value
// is sent after a []byte or io.Reader.
func (r *Request) Send(v interface{}) *Request {
	if r.form != nil {
		panic(mixSendAttachMsg)
	}
	if v == nil {
		return r
	}
	if s, ok := v.(string); ok {
		if !r.header.Has("Content-Type") {
			r.Type("form")
		}
		prev, _ := r.body.(string)
		ct, _ := r.header.Get("Content-Type")
		switch {
		case codec.Essence(ct) == codec.Form && prev != "":
			r.body = prev + "&" + s
		default:
			r.body = prev + s
		}
		r.bodySet = true
		return r
	}
	if isHost(v) {
		r.body, r.bodySet = v, true
		return r
	}
	if r.bodySet && isHost(r.body) {
		panic(mergeSendMsg)
	}
	if obj, ok := asObject(v); ok {
		if prev, ok := asObject(r.body); ok && r.bodySet {
			merged := make(map[string]interface{}, len(prev)+len(obj))
			for k, x := range prev {
				merged[k] = x
			}
			for k, x := range obj {
				merged[k] = x
			}
			obj = merged
		}
		r.body = obj
	} else {
		r.body = v
	}
	r.bodySet = true
	if !r.header.Has("Content-Type") {
		r.Type("json")
	}
	return r
}

// Attach adds a file part to a multipart/form-data body. The content
// may be a string, a []byte or an io.Reader, and filename may be empty.
// The part's Content-Type is sniffed from the content.
//
// Attach panics if Send was called.
func (r *Request) Attach(field string, content interface{}, filename string) *Request {
	r.multipart().files = append(r.multipart().files, formFile{field: field, content: content, filename: filename})
	return r
}

// Field adds a plain field to a multipart/form-data body.
//
// Field panics if Send was called.
func (r *Request) Field(name, value string) *Request {
	r.multipart().fields = append(r.multipart().fields, formField{name: name, value: value})
	return r
}

func (r *Request) multipart() *multipartForm {
	if r.bodySet {
		panic(mixSendAttachMsg)
	}
	if r.form == nil {
		r.form = &multipartForm{}
	}
	return r.form
}

// AuthType selects how Auth applies credentials.
type AuthType string

const (
	// AuthBasic sets a Basic Authorization header.
	AuthBasic AuthType = "basic"
	// AuthBearer sets a Bearer Authorization header using the user as
	// the token.
	AuthBearer AuthType = "bearer"
	// AuthAuto passes the credentials to the transport when the
	// attempt is opened.
	AuthAuto AuthType = "auto"
)

// An AuthOption customizes Auth.
type AuthOption func(*authOptions)

type authOptions struct {
	typ     AuthType
	encoder func(string) string
}

// WithAuthType selects the authentication type. The default is
// AuthBasic.
func WithAuthType(t AuthType) AuthOption {
	return func(o *authOptions) { o.typ = t }
}

// WithEncoder replaces the base64 encoder used for AuthBasic.
func WithEncoder(f func(string) string) AuthOption {
	return func(o *authOptions) { o.encoder = f }
}

// Auth sets the request's credentials. With AuthBearer, user is the
// token and pass is ignored.
func (r *Request) Auth(user, pass string, opts ...AuthOption) *Request {
	o := authOptions{typ: AuthBasic, encoder: func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}}
	for _, opt := range opts {
		opt(&o)
	}
	switch o.typ {
	case AuthBearer:
		r.Set("Authorization", "Bearer "+user)
	case AuthAuto:
		r.cred = &transport.Credentials{Username: user, Password: pass}
	default:
		r.Set("Authorization", "Basic "+o.encoder(user+":"+pass))
	}
	return r
}

// Retry allows up to n retries of failed attempts.
//
// With no deciders, an attempt is retried when it fails with one of
// the error codes in retry.ErrorCodes, a status in retry.StatusCodes, a
// timeout, or a status zero completion. Otherwise an attempt is retried
// when any decider accepts it. A decider which panics falls back to the
// default rule. Attempts failing with an open, parse or abort error are
// never retried.
func (r *Request) Retry(n int, deciders ...retry.Decider) *Request {
	if n < 0 {
		n = 0
	}
	r.retrySet, r.retries, r.deciders = true, n, deciders
	return r
}

// Timeout sets the overall timeout of each attempt, leaving the
// response and upload timeouts disabled.
func (r *Request) Timeout(d time.Duration) *Request {
	return r.Timeouts(timeout.Set{Overall: d})
}

// Timeouts sets every timeout of each attempt. A zero duration
// disables the corresponding timeout.
func (r *Request) Timeouts(s timeout.Set) *Request {
	r.timeoutsSet, r.timeouts = true, s
	return r
}

// Ok replaces the predicate deciding whether a response is a success.
// The default accepts statuses in the range 200-299. A predicate which
// panics rejects the response, and the panic value becomes the error.
func (r *Request) Ok(f func(*request.Response) bool) *Request {
	r.ok = f
	return r
}

// Serialize overrides the serializer for the request body.
func (r *Request) Serialize(s codec.Serializer) *Request {
	r.serializer = s
	return r
}

// Parse overrides the parser for the response body.
func (r *Request) Parse(p codec.Parser) *Request {
	r.parser = p
	return r
}

// ResponseType asks the transport to deliver the response as the
// given type, such as "arraybuffer" or "json". It is ignored, with a
// warning, by transports which lack the transport.ResponseType
// capability.
func (r *Request) ResponseType(t string) *Request {
	r.responseType = t
	return r
}

// WithContext sets the request's context. Cancelling the context has
// the same effect as calling Abort.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	r.ctx = ctx
	return r
}

// On installs a handler for a lifecycle event on this request only.
func (r *Request) On(evt Event, h Handler) *Request {
	r.handlers.PushBack(evt, h)
	return r
}

// Abort aborts the request. Aborting a request which has not been ended
// makes End deliver an abort error without dispatching. Aborting a
// request in flight aborts the transport once and delivers an abort
// error. Aborting a completed request does nothing.
func (r *Request) Abort() *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted {
		return r
	}
	r.aborted = true
	if r.cancel != nil {
		r.cancel()
	}
	return r
}

func (r *Request) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// End finalizes the request and dispatches it, returning a Future for
// the outcome. The callback, which may be nil, is invoked exactly once
// on the goroutine running the request, before the Future completes.
//
// Calling End a second time logs a warning and dispatches the request
// again using the plan frozen by the first call.
func (r *Request) End(cb Callback) *Future {
	f := newFuture()
	log := r.agent.logger()

	r.mu.Lock()
	if r.plan != nil {
		log.Warn("end() was called twice, this is not supported",
			zap.String("method", r.plan.Method), zap.String("url", r.plan.URL))
	} else {
		p, err := r.finalize()
		r.plan = p
		r.fail(err)
		r.state = Finalized
	}
	p := r.plan
	if r.aborted {
		r.state = Aborted
		r.mu.Unlock()
		f.deliver(nil, request.NewAbortError(p, true), cb)
		return f
	}
	if r.cancel == nil {
		var ctx context.Context
		ctx, r.cancel = context.WithCancel(p.Context())
		p = p.WithContext(ctx)
		r.plan = p
	}
	r.state = Dispatching
	buildErr := r.err
	r.mu.Unlock()

	x := r.newExecution(p)
	go func() {
		var res *request.Response
		var err error
		if buildErr != nil {
			res, err = x.fail(request.NewOpenError(p, buildErr))
		} else {
			res, err = x.run()
		}
		r.mu.Lock()
		if r.state == Dispatching {
			r.state = Completed
			if e, ok := err.(*request.Error); ok && e.Kind == request.KindAborted {
				r.state = Aborted
			}
		}
		r.mu.Unlock()
		f.ex = x.e
		f.deliver(res, err, cb)
	}()
	return f
}

// Do ends the request and waits for its outcome.
func (r *Request) Do() (*request.Response, error) {
	return r.End(nil).Wait()
}
