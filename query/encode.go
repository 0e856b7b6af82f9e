// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/google/go-querystring/query"
)

// Undefined is a placeholder value which Encode drops entirely, along
// with its key. It is distinct from nil, which is encoded as a bare key.
var Undefined = undefined{}

type undefined struct{}

// A Pair is a single key and value within an Ordered collection.
type Pair struct {
	Key   string
	Value interface{}
}

// Ordered is a sequence of key/value pairs which Encode visits in
// slice order rather than sorted key order.
type Ordered []Pair

// Encode converts v into a query string fragment without a leading '?'.
//
// A string is returned verbatim. A nil value or an empty collection
// produces the empty string. Maps with string keys, url.Values, Ordered
// and structs (or pointers to structs) are encoded deeply as described
// in the package documentation. Any other value is formatted with
// fmt.Sprint and returned verbatim.
func Encode(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case Ordered:
		var pairs []string
		for _, p := range x {
			pairs = push(pairs, p.Key, p.Value)
		}
		return strings.Join(pairs, "&"), nil
	case url.Values:
		return encodeValues(x), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("agent/query: unsupported map key type %s", rv.Type().Key())
		}
		var pairs []string
		for _, k := range sortedKeys(rv) {
			pairs = push(pairs, k, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
		return strings.Join(pairs, "&"), nil
	case reflect.Struct:
		values, err := query.Values(rv.Interface())
		if err != nil {
			return "", fmt.Errorf("agent/query: %w", err)
		}
		return encodeValues(values), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func encodeValues(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var pairs []string
	for _, k := range keys {
		for _, v := range values[k] {
			pairs = push(pairs, k, v)
		}
	}
	return strings.Join(pairs, "&")
}

func push(pairs []string, key string, value interface{}) []string {
	if _, ok := value.(undefined); ok {
		return pairs
	}
	if value == nil {
		return append(pairs, EscapeURI(key))
	}
	if o, ok := value.(Ordered); ok {
		for _, p := range o {
			pairs = push(pairs, key+"["+p.Key+"]", p.Value)
		}
		return pairs
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return append(pairs, EscapeURI(key))
		}
		return push(pairs, key, rv.Elem().Interface())
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		for i := 0; i < rv.Len(); i++ {
			pairs = push(pairs, key, rv.Index(i).Interface())
		}
		return pairs
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		for _, k := range sortedKeys(rv) {
			sub := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
			pairs = push(pairs, key+"["+k+"]", sub)
		}
		return pairs
	}

	var s string
	if b, ok := value.([]byte); ok {
		s = string(b)
	} else {
		s = fmt.Sprint(value)
	}
	return append(pairs, EscapeURI(key)+"="+EscapeURIComponent(s))
}

func sortedKeys(m reflect.Value) []string {
	keys := make([]string, 0, m.Len())
	for _, k := range m.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}
