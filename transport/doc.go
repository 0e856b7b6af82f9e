// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport defines the boundary between the request lifecycle and
the component which actually moves bytes over the network.

An Adapter carries out exactly one request attempt. The lifecycle opens
it, sets headers, and calls Send, after which the adapter reports what
happens through a Sink: any number of Progress events, optionally a
Headers event and an UploadDone event, and then exactly one terminal
event, which is Success, NetworkError or Abort.

Adapters differ in what they can do. Capabilities reports the optional
features an adapter supports, so a caller can check for a feature before
relying on it instead of discovering at run time that it is missing.

Two implementations are provided in sub-packages: socket, built directly
on net/http, and xhr, which reproduces the completion semantics of a
browser XMLHttpRequest.
*/
package transport
