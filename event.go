// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in an Agent, or on a single Request,
// to observe the request lifecycle or extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs after a
	// request is finalized but before its first attempt is dispatched.
	//
	// When BeforeExecutionStart fires, the execution is non-nil but the
	// only fields that have been set are the ID and the plan.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// attempt is sent, after the transport has been opened and the
	// timeout timers have been armed.
	//
	// The plan's headers and body have already been handed to the
	// transport, so BeforeAttempt handlers cannot change the attempt.
	BeforeAttempt
	// Progress identifies the event that occurs each time the
	// transport reports upload or download progress. The execution's
	// Progress field holds the report.
	//
	// Progress only fires if the transport reports progress. Check the
	// transport's capabilities to find out whether it does.
	Progress
	// AfterResponse identifies the event that occurs after a response
	// has been materialized and before it is checked with the ok
	// predicate.
	//
	// When AfterResponse fires, the execution's response field is
	// non-nil and its error field is nil. AfterResponse does not fire
	// for status zero completions or responses which failed to parse.
	AfterResponse
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because a timeout timer fired.
	//
	// When AfterAttemptTimeout fires, the execution's error field is
	// set to the timeout error, and its attempt timeout counter has
	// been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an attempt
	// is concluded, regardless of whether it concluded successfully or
	// not.
	//
	// AfterAttempt always fires on every attempt, including an attempt
	// which could not be opened, and it runs before the retry policy
	// is consulted.
	AfterAttempt
	// BeforeRetry identifies the event that occurs after the retry
	// policy has decided to retry, before the retry wait begins.
	BeforeRetry
	// AfterAbort identifies the event that occurs when the request is
	// aborted, either by calling Abort or by cancellation of the
	// request's context. It fires whether the abort was observed while
	// an attempt was in flight or during a retry wait.
	//
	// AfterAbort does not fire when a request is aborted before it is
	// ended, as there is no execution in that case.
	AfterAbort
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends and before the outcome is delivered.
	//
	// When AfterExecutionEnd fires, the execution is in the same state
	// it was in after the final attempt EXCEPT that the end time is
	// set, and the error, if any, carries the retry count.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"Progress",
	"AfterResponse",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"BeforeRetry",
	"AfterAbort",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// request execution, in the order in which they would first occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		Progress,
		AfterResponse,
		AfterAttemptTimeout,
		AfterAttempt,
		BeforeRetry,
		AfterAbort,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
