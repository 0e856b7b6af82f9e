// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/agent/request"
	"github.com/gogama/agent/transient"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, and Before, and the
// built-in decider TransientErr; or implement your Decider. Use
// DeciderFunc to convert an ordinary function into a Decider, and to
// compose deciders logically using DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
//
// Simple DeciderFunc functions can be composed into complex decision
// trees using the logical composition functions DeciderFunc.And and
// DeciderFunc.Or. Because of this composition ability, it will often
// be convenient to work directly with DeciderFunc rather than with
// Decider.
type DeciderFunc func(e *request.Execution) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 5

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It will allow up to DefaultTimes retries (i.e. up
// to 6 total attempts), and will retry whenever DefaultEligible does.
var DefaultDecider = Times(DefaultTimes).And(DefaultEligible)

// StatusCodes lists the response status codes DefaultEligible retries.
var StatusCodes = []int{408, 413, 429, 500, 502, 503, 504, 521, 522, 524}

// ErrorCodes lists the error codes DefaultEligible retries. An error
// code is carried in request.Error.Code.
var ErrorCodes = []string{
	request.ECONNRESET,
	request.ETIMEDOUT,
	request.EADDRINFO,
	request.ESOCKETTIMEDOUT,
	request.ECONNREFUSED,
}

// DefaultEligible is the decider used when a request enables retries
// without giving its own decider. It returns true if the most recent
// attempt received one of the StatusCodes, or failed with an error
// whose code is one of the ErrorCodes, or timed out, or completed with
// status zero.
//
// DefaultEligible places no limit on the number of retries. The limit
// comes from the request's retry count.
var DefaultEligible DeciderFunc = defaultEligible

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it will always return false
// if a valid HTTP response is returned. Compose it with other deciders,
// for example a status code decider constructed with StatusCode, to
// get more complex functionality.
var TransientErr DeciderFunc = transientErr

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current request plan execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the execution attempt index
// e.Attempt is less than n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the logical HTTP request
// plan execution. The returned decider returns true while the execution
// duration is less than d, and false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent request attempt within
// the plan execution received a valid HTTP response, and the response
// status code is contained in the list ss, the decider returns true.
// Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// Func adapts a predicate over the error and response of the most
// recent attempt into a Decider. Either argument may be nil.
func Func(f func(err error, res *request.Response) bool) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e.Err, e.Response)
	}
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}

func defaultEligible(e *request.Execution) bool {
	if e.Response != nil && StatusCode(StatusCodes...)(e) {
		return true
	}
	err := e.Error()
	if err == nil {
		return false
	}
	for _, code := range ErrorCodes {
		if err.Code == code {
			return true
		}
	}
	if err.Kind == request.KindTimeout && err.Code == request.ECONNABORTED {
		return true
	}
	return err.CrossDomain
}
