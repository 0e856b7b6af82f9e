// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"time"

	"github.com/gogama/agent/transient"
	"github.com/gogama/agent/transport"
	"github.com/google/uuid"
)

// An Execution represents the state of a single Plan execution.
//
// When a request is ended, an Execution is created for it. The
// Execution is updated as the execution progresses (for example when a
// response becomes available, or when a retry is needed) and is
// ultimately the source of the value delivered to the caller.
//
// Timeout and retry policies and event handlers may set values on an
// Execution using its SetValue method and read them back using the Value
// method. However, they should treat the structure's exported field
// values as immutable and leave them unmodified, as the execution state
// is vital to the correct functioning of the lifecycle.
type Execution struct {
	// ID uniquely identifies the execution. It is assigned when the
	// execution is created and is useful for correlating log lines.
	ID uuid.UUID

	// Plan specifies the request plan being executed. It is never nil.
	Plan *Plan

	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts, and this value remains
	// constant thereafter.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time

	// Attempt is the zero-based number of the current attempt during
	// the execution. It is set to zero on the initial attempt, one on
	// the first retry, and so on.
	//
	// When the execution is ended, Attempt contains the zero-based
	// number of the last attempt made, which is also the number of
	// retries consumed.
	Attempt int

	// AttemptTimeouts is the count of the number of times an attempt
	// timed out during the execution.
	AttemptTimeouts int

	// Response is the response materialized from the most recent
	// attempt. It is nil if the most recent attempt did not complete
	// with a response, if an attempt is underway, or before the
	// execution starts. Response may be non-nil at the same time as
	// Err, for example when the ok predicate rejects the response.
	Response *Response

	// Err is the error from the most recent attempt. It is nil if the
	// most recent attempt succeeded, if an attempt is underway, or
	// before the execution starts.
	//
	// Whenever Err is non-nil, it has the type *Error. Once the
	// execution has ended, Err will not change and is the error value
	// delivered to the caller.
	Err error

	// Progress is the most recent progress report of the current
	// attempt. It is most useful inside a Progress event handler.
	Progress transport.Progress

	// LastStatus is the most recent status code reported by the
	// transport in the current attempt, including through a Headers
	// event, or zero if none was.
	LastStatus Status

	// Data contains arbitrary user data. The agent library will not
	// touch this field, and it will typically be nil unless used by
	// event handler writers.
	//
	// Event handlers may interact with this via the Value and SetValue
	// methods.
	data context.Context
}

// NewExecution returns a new execution of p with a fresh random ID.
func NewExecution(p *Plan) *Execution {
	return &Execution{
		ID:   uuid.New(),
		Plan: p,
	}
}

// StatusCode returns the status code of the response from the most
// recent attempt in the execution. If there is no response, 0 is
// returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return int(e.Response.Status)
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has Ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start. The
// return value is thus monotonically increasing over the life of
// the execution, and becomes static when the execution has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
//
// If the return value is true, then the execution is over, End is a
// non-zero time, and there will be no further changes to the execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout.
func (e *Execution) Timeout() bool {
	cat := transient.Categorize(e.Err)
	return cat == transient.Timeout
}

// Error returns Err as an *Error, or nil if Err is nil.
func (e *Execution) Error() *Error {
	err, _ := e.Err.(*Error)
	return err
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same request execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
