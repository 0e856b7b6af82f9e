// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package xhr provides a transport adapter which reproduces the completion
semantics of a browser XMLHttpRequest, built on github.com/go-resty/resty/v2.

Unlike the socket adapter, an xhr adapter never emits a network error.
A request which fails to reach the server completes with status zero,
exactly as an XMLHttpRequest does, and the response header is delivered
as raw "name: value" text. The adapter also supports a response type,
which controls whether the response body is available as text.
*/
package xhr
