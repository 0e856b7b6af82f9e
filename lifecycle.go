// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"fmt"
	"time"

	"github.com/gogama/agent/codec"
	"github.com/gogama/agent/request"
	"github.com/gogama/agent/retry"
	"github.com/gogama/agent/timeout"
	"github.com/gogama/agent/transport"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// An execution drives one call to End through its attempts. All of its
// state is owned by the goroutine started by End.
type execution struct {
	plan *request.Plan
	e    *request.Execution

	factory  transport.Factory
	registry *codec.Registry
	parser   codec.Parser
	ok       func(*request.Response) bool
	timeouts func(*request.Execution) timeout.Set
	retry    retry.Policy
	counted  bool
	handlers handlerChain
	limiter  *rate.Limiter
	log      *zap.Logger
}

func (r *Request) newExecution(p *request.Plan) *execution {
	a := r.agent
	e := request.NewExecution(p)
	x := &execution{
		plan:     p,
		e:        e,
		factory:  a.transport(),
		registry: a.registry(),
		parser:   r.parser,
		ok:       r.ok,
		handlers: handlerChain{a.Handlers, &r.handlers},
		limiter:  a.Limiter,
		log:      a.logger().With(zap.Stringer("execution", e.ID)),
	}

	if r.timeoutsSet {
		s := r.timeouts
		x.timeouts = func(*request.Execution) timeout.Set { return s }
	} else {
		x.timeouts = a.timeoutPolicy().Timeouts
	}

	x.retry = a.retryPolicy()
	x.counted = a.RetryPolicy != nil
	if r.retrySet {
		x.retry = retry.NewPolicy(retry.Times(r.retries).And(x.eligible(r.deciders)), x.retry)
		x.counted = r.retries > 0
	}
	return x
}

// eligible combines the request's retry deciders. Any decider accepting
// the attempt makes it eligible. A decider which panics is replaced by
// the default rule for that decision.
func (x *execution) eligible(deciders []retry.Decider) retry.DeciderFunc {
	if len(deciders) == 0 {
		return retry.DefaultEligible
	}
	return func(e *request.Execution) bool {
		for _, d := range deciders {
			if x.safeDecide(d, e) {
				return true
			}
		}
		return false
	}
}

func (x *execution) safeDecide(d retry.Decider, e *request.Execution) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			x.log.Error("retry decider panicked, using default rule", zap.Any("panic", v))
			ok = retry.DefaultEligible(e)
		}
	}()
	return d.Decide(e)
}

func (x *execution) run() (*request.Response, error) {
	e := x.e
	x.handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

	for {
		x.attempt()
		if e.Timeout() {
			e.AttemptTimeouts++
			x.handlers.run(AfterAttemptTimeout, e)
		}
		x.handlers.run(AfterAttempt, e)
		if isAbort(e.Err) {
			x.handlers.run(AfterAbort, e)
			break
		}
		if !x.retryable() || !x.retry.Decide(e) {
			break
		}
		wait := x.retry.Wait(e)
		x.log.Debug("retrying",
			zap.Int("attempt", e.Attempt),
			zap.Duration("wait", wait),
			zap.Error(e.Err))
		x.handlers.run(BeforeRetry, e)
		if !x.sleep(wait) {
			e.Response = nil
			e.Err = x.abortError()
			x.handlers.run(AfterAbort, e)
			break
		}
		e.Response = nil
		e.Err = nil
		e.LastStatus = 0
		e.Progress = transport.Progress{}
		e.Attempt++
	}

	return x.finish()
}

// fail ends the execution with err without dispatching any attempt.
func (x *execution) fail(err error) (*request.Response, error) {
	e := x.e
	x.handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()
	e.Err = err
	x.handlers.run(AfterAttempt, e)
	return x.finish()
}

func (x *execution) finish() (*request.Response, error) {
	e := x.e
	if err := e.Error(); err != nil && x.counted {
		err.Retries = e.Attempt
	}
	e.End = time.Now()
	x.handlers.run(AfterExecutionEnd, e)
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Response, nil
}

// retryable reports whether the retry policy may be consulted about
// the most recent attempt. Only failed attempts are retried.
func (x *execution) retryable() bool {
	if x.plan.Context().Err() != nil {
		return false
	}
	if x.e.Err == nil {
		return false
	}
	err := x.e.Error()
	if err == nil {
		return true
	}
	switch err.Kind {
	case request.KindOpen, request.KindParse, request.KindAborted:
		return false
	default:
		return true
	}
}

func (x *execution) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-x.plan.Context().Done():
		return false
	}
}

func (x *execution) abortError() *request.Error {
	err := request.NewAbortError(x.plan, false)
	err.Original = x.plan.Context().Err()
	return err
}

func isAbort(err error) bool {
	e, ok := err.(*request.Error)
	return ok && e.Kind == request.KindAborted
}

// attempt makes one attempt, leaving its outcome in x.e.
func (x *execution) attempt() {
	e, p := x.e, x.plan
	ctx := p.Context()
	if ctx.Err() != nil {
		e.Err = x.abortError()
		return
	}

	a := x.factory()
	if err := a.Open(p.Method, p.URL, p.Credentials); err != nil {
		e.Err = request.NewOpenError(p, err)
		return
	}
	if x.limiter != nil {
		if err := x.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				e.Err = x.abortError()
			} else {
				e.Err = request.NewOpenError(p, err)
			}
			return
		}
	}
	p.Header.Each(a.SetHeader)
	if p.ResponseType != "" {
		if rt, ok := a.(transport.ResponseTyper); ok && a.Capabilities().Has(transport.ResponseType) {
			rt.SetResponseType(p.ResponseType)
		} else {
			x.log.Warn("transport does not support response type, ignoring it",
				zap.String("responseType", p.ResponseType))
		}
	}

	events := make(chan transport.Event, 16)
	done := make(chan struct{})
	defer close(done)
	emit := func(ev transport.Event) {
		select {
		case events <- ev:
		case <-done:
		}
	}

	timers := timeout.Start(x.timeouts(e))
	defer timers.Stop()
	x.handlers.run(BeforeAttempt, e)
	a.Send(p.Body, emit)

	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case transport.ProgressEvent:
				e.Progress = ev.Progress
				if ev.Progress.Direction == transport.Upload && ev.Progress.Computable() && ev.Progress.Percent >= 100 {
					timers.Clear(request.UploadPhase)
				}
				x.handlers.run(Progress, e)
			case transport.UploadDoneEvent:
				timers.Clear(request.UploadPhase)
			case transport.HeadersEvent:
				e.LastStatus = request.NormalizeStatus(ev.Status)
				timers.Clear(request.ResponsePhase)
			case transport.SuccessEvent:
				timers.Stop()
				x.complete(ev.Completion)
				return
			case transport.NetworkErrorEvent:
				e.Err = request.NewNetworkError(p, ev.Err)
				return
			case transport.AbortEvent:
				e.Err = x.abortError()
				return
			}
		case f := <-timers.C:
			a.Abort()
			e.Err = request.NewTimeoutError(p, f.Phase, f.After, e.LastStatus)
			return
		case <-ctx.Done():
			a.Abort()
			e.Err = x.abortError()
			return
		}
	}
}

// complete turns a completed exchange into a response or an error.
func (x *execution) complete(c *transport.Completion) {
	e, p := x.e, x.plan
	if c == nil || request.NormalizeStatus(c.Status) == 0 {
		e.Err = request.NewCrossDomainError(p)
		return
	}
	res, err := request.Materialize(p, c, x.registry, x.parser)
	e.LastStatus = res.Status
	if err != nil {
		e.Err = request.NewParseError(p, res, err)
		return
	}
	e.Response = res
	x.handlers.run(AfterResponse, e)
	ok, cause := x.isOK(res)
	res.Success = &ok
	if !ok {
		e.Err = request.NewHTTPError(p, res, cause)
	}
}

func (x *execution) isOK(res *request.Response) (ok bool, cause error) {
	if x.ok == nil {
		return res.Status.OK(), nil
	}
	defer func() {
		if v := recover(); v != nil {
			ok = false
			if err, isErr := v.(error); isErr {
				cause = err
			} else {
				cause = fmt.Errorf("%v", v)
			}
		}
	}()
	return x.ok(res), nil
}
