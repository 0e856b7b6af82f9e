// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package query encodes Go values into URL query string fragments and
decodes application/x-www-form-urlencoded strings back into flat maps.

Encode walks maps, slices and nested maps deeply:

	query.Encode(map[string]interface{}{
		"tags": []string{"a", "b"},
		"page": map[string]interface{}{"size": 10},
		"flag": nil,
		"skip": query.Undefined,
	})
	// flag&page%5Bsize%5D=10&tags=a&tags=b

Slices repeat the key once per element, nested maps produce bracketed
sub-keys, a nil value produces the bare key with no '=' and Undefined
produces nothing at all. Keys are escaped as by JavaScript's encodeURI,
values as by encodeURIComponent.

Go maps have no order, so their keys are encoded in sorted order. Use
Ordered when insertion order matters. Structs are encoded with
github.com/google/go-querystring, honouring its `url` struct tags.
*/
package query
