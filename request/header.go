// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "strings"

// Header is an ordered set of request header fields.
//
// Header names keep the case they were last set with, which is the case
// used on the wire, while lookups are case-insensitive. A field may be
// suppressed, which means it is never sent but still counts as present
// for the purpose of blocking default values, such as a Content-Type
// derived from the request body.
//
// The zero value is an empty header ready to use. A Header is not safe
// for concurrent mutation.
type Header struct {
	entries []headerEntry
	index   map[string]int
}

type headerEntry struct {
	name       string
	value      string
	suppressed bool
}

func fold(name string) string {
	return strings.ToLower(name)
}

func (h *Header) put(name, value string, suppressed bool) {
	key := fold(name)
	if i, ok := h.index[key]; ok {
		h.entries[i] = headerEntry{name, value, suppressed}
		return
	}
	if h.index == nil {
		h.index = make(map[string]int)
	}
	h.index[key] = len(h.entries)
	h.entries = append(h.entries, headerEntry{name, value, suppressed})
}

// Set sets the field name to value, replacing any existing value or
// suppression regardless of case. A replaced field keeps its position.
func (h *Header) Set(name, value string) {
	h.put(name, value, false)
}

// Suppress marks the field name as suppressed.
func (h *Header) Suppress(name string) {
	h.put(name, "", true)
}

// Del removes the field name entirely, including any suppression.
func (h *Header) Del(name string) {
	key := fold(name)
	i, ok := h.index[key]
	if !ok {
		return
	}
	h.entries = append(h.entries[:i], h.entries[i+1:]...)
	delete(h.index, key)
	for j := i; j < len(h.entries); j++ {
		h.index[fold(h.entries[j].name)] = j
	}
}

// Get returns the value of the field name. The second return value is
// false if the field is absent or suppressed.
func (h *Header) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	i, ok := h.index[fold(name)]
	if !ok || h.entries[i].suppressed {
		return "", false
	}
	return h.entries[i].value, true
}

// Has reports whether the field name is present, either with a value
// or suppressed.
func (h *Header) Has(name string) bool {
	if h == nil {
		return false
	}
	_, ok := h.index[fold(name)]
	return ok
}

// Suppressed reports whether the field name is suppressed.
func (h *Header) Suppressed(name string) bool {
	if h == nil {
		return false
	}
	i, ok := h.index[fold(name)]
	return ok && h.entries[i].suppressed
}

// Len returns the number of fields, including suppressed ones.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Each calls f for every field which is not suppressed, in the order
// the fields were first set.
func (h *Header) Each(f func(name, value string)) {
	if h == nil {
		return
	}
	for _, e := range h.entries {
		if !e.suppressed {
			f(e.name, e.value)
		}
	}
}

// Clone returns a deep copy of h. Cloning a nil Header returns an empty
// one.
func (h *Header) Clone() *Header {
	c := &Header{}
	if h == nil || len(h.entries) == 0 {
		return c
	}
	c.entries = make([]headerEntry, len(h.entries))
	copy(c.entries, h.entries)
	c.index = make(map[string]int, len(h.index))
	for k, v := range h.index {
		c.index[k] = v
	}
	return c
}

// Merge sets every field of other, including suppressions, onto h.
func (h *Header) Merge(other *Header) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		h.put(e.name, e.value, e.suppressed)
	}
}
