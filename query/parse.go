// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Parse decodes an application/x-www-form-urlencoded string into a flat
// map. A pair without '=' maps its key to the empty string, and when a
// key repeats the last occurrence wins. Percent escapes are decoded as by
// JavaScript's decodeURIComponent, so '+' is left as-is.
func Parse(s string) (map[string]string, error) {
	m := make(map[string]string)
	for _, pair := range strings.Split(s, "&") {
		var k, v string
		var err error
		if i := strings.IndexByte(pair, '='); i < 0 {
			k, err = url.PathUnescape(pair)
		} else {
			k, err = url.PathUnescape(pair[:i])
			if err == nil {
				v, err = url.PathUnescape(pair[i+1:])
			}
		}
		if err != nil {
			return nil, fmt.Errorf("agent/query: malformed pair %q: %w", pair, err)
		}
		m[k] = v
	}
	return m, nil
}
