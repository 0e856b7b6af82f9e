// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/agent/request"
)

// A Set holds the three timeouts which may be applied to an attempt.
// A zero duration disables the corresponding timeout.
type Set struct {
	// Overall limits the entire attempt.
	Overall time.Duration
	// Response limits the time until response headers are received.
	Response time.Duration
	// Upload limits the time taken to send the request body.
	Upload time.Duration
}

// IsZero reports whether every timeout in s is disabled.
func (s Set) IsZero() bool {
	return s == Set{}
}

// Get returns the timeout for phase p.
func (s Set) Get(p request.Phase) time.Duration {
	switch p {
	case request.Overall:
		return s.Overall
	case request.ResponsePhase:
		return s.Response
	case request.UploadPhase:
		return s.Upload
	default:
		return 0
	}
}

// A Policy defines a timeout policy which may be plugged into an agent
// to direct how to set the timeouts for the initial attempt, as well as
// for any subsequent retries.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeouts returns the timeouts to set on the next attempt within
	// the plan execution.
	//
	// Parameter e contains the current state of the plan execution.
	Timeouts(e *request.Execution) Set
}

// None is a built-in timeout policy which never times out. It is the
// default policy.
var None Policy = FixedSet(Set{})

// DefaultPolicy is the timeout policy used when an agent has none.
var DefaultPolicy = None

// Fixed constructs a timeout policy that sets the same overall timeout
// on every attempt, with no response or upload timeout.
//
// Use Fixed to create the typical timeout behavior supported by most
// retrying HTTP client software.
func Fixed(d time.Duration) Policy {
	return policy([]Set{{Overall: d}})
}

// FixedSet constructs a timeout policy that sets the same timeouts on
// every attempt.
func FixedSet(s Set) Policy {
	return policy([]Set{s})
}

// Adaptive constructs a timeout policy that varies the next overall
// timeout value if the previous attempt timed out.
//
// Use Adaptive if you find the remote service often exhibits one-off slow
// response times that can be cured by quickly timing out and retrying,
// but you also need to protect your application (and the remote service)
// from retry storms and failure if the remote service goes through a
// burst of slowness where most response times during the burst are
// slower than your usual quick timeout.
//
// Parameter usual represents the timeout value the policy will return
// for an initial attempt and for any retry where the immediately
// preceding attempt did not time out.
//
// Parameter after contains timeout values the policy will return if
// the previous attempt timed out. If this was the first timeout of the
// execution, after[0] is returned; if the second, after[1], and so on.
// If more attempts have timed out within the execution than after has
// elements, then the last element of after is returned.
//
// Consider the following timeout policy:
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// The policy p will use 200 milliseconds as the usual timeout but if
// the preceding attempt timed out and was the first timeout of the
// execution, it will use 1 second; and if the previous attempt timed
// out and was not the first attempt, it will use 10 seconds.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]Set, 1, 1+len(after))
	p[0] = Set{Overall: usual}
	for _, d := range after {
		p = append(p, Set{Overall: d})
	}
	return policy(p)
}

type policy []Set

func (p policy) Timeouts(e *request.Execution) Set {
	if !e.Timeout() {
		return p[0]
	}

	i := e.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
