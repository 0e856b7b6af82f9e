// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/agent/request"
)

// A Policy is consulted after every failed attempt of a request
// execution. Successful attempts are delivered without consulting it.
// Decide reports whether another attempt
// should be made, and if it should, Wait gives the pause before it.
//
// An Agent's policy applies to all of its requests. Request.Retry
// replaces the Decider for one request but keeps the agent's Waiter.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy retries up to DefaultTimes times when DefaultEligible
// accepts the attempt, waiting according to DefaultWaiter.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries. It is the policy used by an
// agent unless retries are enabled.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	Decider
	Waiter
}

// NewPolicy composes a Decider and a Waiter into a Policy. It panics if
// either is nil.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("agent/retry: nil decider")
	}
	if w == nil {
		panic("agent/retry: nil waiter")
	}
	return policy{d, w}
}

// Waits returns the waits w would produce for attempts 0 through n-1,
// which is handy for checking a backoff configuration.
func Waits(w Waiter, n int) []time.Duration {
	waits := make([]time.Duration, n)
	e := &request.Execution{}
	for i := range waits {
		e.Attempt = i
		waits[i] = w.Wait(e)
	}
	return waits
}
