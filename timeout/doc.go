// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines flexible policies for setting timeouts during
// a request plan execution, including on retries, and the per-attempt
// timers which enforce them.
//
// Three independent timeouts are supported, described by a Set. The
// overall timeout limits a whole attempt. The response timeout limits
// the wait for response headers. The upload timeout limits the time
// taken to send the request body. A generic interface for timeout
// policies is provided, Policy, along with several useful policy
// generating functions and built-in policies.
package timeout
