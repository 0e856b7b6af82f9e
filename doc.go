// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package agent provides a fluent HTTP request builder with pluggable
transports, content negotiation, retries and timeouts.

Create a request with a verb constructor, configure it by chaining
builder methods, then end it:

	res, err := agent.Post("https://api.example.com/items").
		Query(map[string]interface{}{"dry": true}).
		Set("X-Trace", "1").
		Send(map[string]interface{}{"name": "widget"}).
		Do()

End dispatches the request asynchronously and returns a Future. The
optional callback is invoked exactly once with either an error or a
response:

	f := agent.Get(url).Retry(2).Timeout(5*time.Second).End(
		func(err error, res *request.Response) {
			...
		})

Every error delivered by a request has type *request.Error, whose Kind
tells open, network, timeout, parse, HTTP and abort errors apart.

Requests are created by an Agent, which holds the settings shared by its
requests: the transport, the codec registry, default headers, retry and
timeout policies, a rate limiter, a logger and lifecycle handlers. The
package-level constructors use DefaultAgent.

	a := &agent.Agent{
		Transport:   xhr.New(nil),
		RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.DefaultWaiter),
		Logger:      logger,
	}
	res, err := a.Get(url).Do()

To hook into the fine-grained details of a request's execution, install
a handler for a lifecycle Event, either on the Agent's handler group or
on a single request:

	r := a.Get(url).On(agent.BeforeAttempt, agent.HandlerFunc(
		func(_ agent.Event, e *request.Execution) {
			log.Printf("attempt %d to %s", e.Attempt, e.Plan.URL)
		}))
*/
package agent
