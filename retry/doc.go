// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides flexible policies for retrying failed attempts
// during a request plan execution, and how long to wait before
// retrying.
//
// The interface Policy defines a retry Policy. A Policy instance can be
// constructed using NewPolicy by providing a decision-maker, Decider,
// and a wait time calculator, Waiter. Both Decider and Waiter have
// constructors for common use cases, so that a useful policy can be
// quickly assembled:
//
//	decider := retry.Times(3).
//	               And(retry.Before(5 * time.Second)).
//	               And(retry.StatusCode(500).Or(retry.TransientErr))
//	waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now())
//	policy := retry.NewPolicy(decider, waiter)
//
// Policies built on github.com/hashicorp/go-retryablehttp can be used
// through Retryablehttp and NewRetryablehttpWaiter, which lets a policy
// honour the Retry-After header.
//
// Whatever the policy says, attempts which failed because the request
// could not be opened, was aborted, or returned a body which could not
// be parsed are never retried.
package retry
