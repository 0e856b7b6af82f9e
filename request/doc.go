// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the data types which flow through a request
lifecycle: Plan (a finalized request), Execution (the state of one Plan
execution), Response (the materialized result of an attempt) and Error
(the error delivered when an execution fails).

A Plan is produced when a request builder is ended. It holds the method,
the URL with its finalized query string, an ordered Header and the
already serialized body, so every attempt made during an execution,
including retries, sends identical data:

	p, err := request.NewPlan("POST", "https://example.com/items", `{"name":"x"}`)
	...
	p.Header.Set("Content-Type", "application/json")

An Execution is created for each Plan execution and is handed to retry
policies, timeout policies and event handlers as the execution
progresses. You will typically not allocate Execution instances
yourself.

Materialize turns a transport completion into a Response: it normalizes
the status, parses the header, decodes the text to UTF-8 and parses the
body with the codec registry. Both Response and Error embed Status, so
the same classification methods (OK, NotFound, ServerError and so on)
are available on each.
*/
package request
