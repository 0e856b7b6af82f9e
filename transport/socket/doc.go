// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package socket provides a transport adapter built directly on net/http.

The socket adapter reports transport failures, such as a refused
connection, as network errors, emits upload and download progress, and
emits a headers event as soon as the response status is known. It
advertises gzip, deflate and zstd content encodings and decodes response
bodies itself, unless the caller sets Accept-Encoding explicitly.

	a := agent.New(config.Config{})
	a.Transport = socket.New(&http.Client{Transport: myTransport})
*/
package socket
