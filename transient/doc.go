// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts transport errors into the categories the
// request lifecycle cares about: timeouts, refused connections, reset
// connections and everything else.
//
// The request package uses Categorize to fill in the Node.js-style Code
// of network errors, and package retry uses it to decide which errors
// are worth another attempt. It depends only on the standard library.
package transient
