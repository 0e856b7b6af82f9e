// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package query

import "strings"

const upperhex = "0123456789ABCDEF"

// EscapeURIComponent percent-encodes s the way JavaScript's
// encodeURIComponent does: everything except ASCII letters, digits and
// the marks - _ . ! ~ * ' ( ) is escaped as UTF-8 bytes.
func EscapeURIComponent(s string) string {
	return escape(s, false)
}

// EscapeURI percent-encodes s the way JavaScript's encodeURI does. It
// behaves like EscapeURIComponent but additionally leaves the reserved
// characters ; , / ? : @ & = + $ # unescaped.
func EscapeURI(s string) string {
	return escape(s, true)
}

func escape(s string, reserved bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i], reserved) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, reserved) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func shouldEscape(c byte, reserved bool) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	case ';', ',', '/', '?', ':', '@', '&', '=', '+', '$', '#':
		return !reserved
	}
	return true
}
