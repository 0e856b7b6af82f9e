// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"testing"
	"time"

	"github.com/gogama/agent/request"
	"github.com/gogama/agent/retry"
	"github.com/gogama/agent/timeout"
	"github.com/gogama/agent/transport"
	"github.com/stretchr/testify/mock"
)

type mockAdapter struct {
	mock.Mock
}

func newMockAdapter(t *testing.T) *mockAdapter {
	m := &mockAdapter{}
	m.Test(t)
	return m
}

func (m *mockAdapter) factory() transport.Factory {
	return func() transport.Adapter { return m }
}

func (m *mockAdapter) Open(method, url string, cred *transport.Credentials) error {
	args := m.Called(method, url, cred)
	return args.Error(0)
}

func (m *mockAdapter) SetHeader(name, value string) {
	m.Called(name, value)
}

func (m *mockAdapter) Send(body []byte, emit transport.Sink) {
	m.Called(body, emit)
}

func (m *mockAdapter) Abort() {
	m.Called()
}

func (m *mockAdapter) Capabilities() transport.Capability {
	args := m.Called()
	return args.Get(0).(transport.Capability)
}

// respond returns a Run function which asynchronously emits evs to the
// sink passed to Send.
func respond(evs ...transport.Event) func(mock.Arguments) {
	return func(args mock.Arguments) {
		emit := args.Get(1).(transport.Sink)
		go func() {
			for _, ev := range evs {
				emit(ev)
			}
		}()
	}
}

func success(status int, contentType, body string) transport.Event {
	return transport.Event{
		Kind: transport.SuccessEvent,
		Completion: &transport.Completion{
			Status:      status,
			StatusText:  statusTexts[status],
			RawHeader:   "Content-Type: " + contentType + "\r\n",
			ContentType: contentType,
			Body:        []byte(body),
		},
	}
}

var statusTexts = map[int]string{
	200: "OK",
	201: "Created",
	404: "Not Found",
	503: "Service Unavailable",
}

type mockTimeoutPolicy struct {
	mock.Mock
}

func newMockTimeoutPolicy(t *testing.T) *mockTimeoutPolicy {
	m := &mockTimeoutPolicy{}
	m.Test(t)
	return m
}

func (m *mockTimeoutPolicy) Timeouts(e *request.Execution) timeout.Set {
	args := m.Called(e)
	return args.Get(0).(timeout.Set)
}

type mockRetryPolicy struct {
	mock.Mock
}

func newMockRetryPolicy(t *testing.T) *mockRetryPolicy {
	m := &mockRetryPolicy{}
	m.Test(t)
	return m
}

func (m *mockRetryPolicy) Decide(e *request.Execution) bool {
	args := m.Called(e)
	return args.Bool(0)
}

func (m *mockRetryPolicy) Wait(e *request.Execution) time.Duration {
	args := m.Called(e)
	return args.Get(0).(time.Duration)
}

func (g *HandlerGroup) mock(evt Event) *mockHandler {
	if len(g.handlers) > int(evt) {
		for _, h := range g.handlers[evt] {
			if m, ok := h.(*mockHandler); ok {
				return m
			}
		}
	}

	m := &mockHandler{}
	g.PushBack(evt, m)
	return m
}

func (g *HandlerGroup) assertExpectations(t *testing.T) {
	if g.handlers == nil {
		return
	}

	for _, evt := range Events() {
		for _, h := range g.handlers[evt] {
			if m, ok := h.(*mockHandler); ok {
				m.AssertExpectations(t)
			}
		}
	}
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(evt Event, e *request.Execution) {
	m.Called(evt, e)
}

type trace struct {
	calls []string
}

func (g *HandlerGroup) addTraceHandlers() *trace {
	tr := &trace{}
	f := func(evt Event, _ *request.Execution) {
		tr.calls = append(tr.calls, evt.Name())
	}
	h := HandlerFunc(f)
	for _, evt := range Events() {
		g.PushBack(evt, h)
	}
	return tr
}

// fastRetry is an agent retry policy which never retries by itself but
// waits only briefly when a request enables retries.
var fastRetry = retry.NewPolicy(retry.Times(0), retry.NewFixedWaiter(time.Millisecond))
