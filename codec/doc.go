// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package codec maps content types to body serializers and response
parsers.

A Registry has three tables. The alias table turns short names such as
"json" or "form" into full MIME types. The serializer table converts a
Go value into request body bytes, and the parser table converts response
body bytes into a Go value. Lookups ignore MIME parameters and fall back
to the JSON codec for any JSON-like type, for example
"application/vnd.api+json".

Default is the registry used by agents which do not set their own. Its
tables may be changed at program start-up, but changing them while
requests are in flight gives nondeterministic results.
*/
package codec
