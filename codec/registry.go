// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"regexp"
	"strings"
	"sync"
)

// A Serializer converts a structured value into a request body.
type Serializer func(v interface{}) ([]byte, error)

// A Parser converts a response body into a structured value.
type Parser func(data []byte) (interface{}, error)

// Registry is a table of content type aliases, serializers and parsers.
// The zero value is an empty registry ready to use.
type Registry struct {
	mu          sync.RWMutex
	aliases     map[string]string
	serializers map[string]Serializer
	parsers     map[string]Parser
}

// Default is the process-wide registry holding the built-in codecs.
var Default = New()

var jsonLike = regexp.MustCompile(`(?i)[/+]json($|[^-\w])`)

// IsJSON reports whether mime names a JSON media type, either exactly
// (application/json) or by structured suffix (application/ld+json).
// Parameters are allowed. JSON text sequences (application/json-seq)
// are not JSON.
func IsJSON(mime string) bool {
	return jsonLike.MatchString(mime)
}

// Essence returns mime with any parameters removed and surrounding
// whitespace trimmed, in lower case.
func Essence(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// New returns a registry populated with the built-in aliases and codecs.
func New() *Registry {
	r := &Registry{}
	for alias, mime := range builtinAliases {
		r.SetAlias(alias, mime)
	}
	registerBuiltins(r)
	return r
}

// Clone returns an independent copy of r. Changes to the copy do not
// affect r and vice versa.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := &Registry{
		aliases:     make(map[string]string, len(r.aliases)),
		serializers: make(map[string]Serializer, len(r.serializers)),
		parsers:     make(map[string]Parser, len(r.parsers)),
	}
	for k, v := range r.aliases {
		c.aliases[k] = v
	}
	for k, v := range r.serializers {
		c.serializers[k] = v
	}
	for k, v := range r.parsers {
		c.parsers[k] = v
	}
	return c
}

// ResolveMime returns the MIME type registered for alias, or alias
// itself if it is not a known alias. Any string containing '/' is
// treated as a MIME type already.
func (r *Registry) ResolveMime(alias string) string {
	if strings.IndexByte(alias, '/') >= 0 {
		return alias
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if mime, ok := r.aliases[alias]; ok {
		return mime
	}
	return alias
}

// SerializerFor returns the serializer registered for mime. If none is
// registered and mime is JSON-like, the JSON serializer is returned.
// The second return value is false if no serializer applies.
func (r *Registry) SerializerFor(mime string) (Serializer, bool) {
	key := Essence(mime)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.serializers[key]; ok {
		return s, true
	}
	if IsJSON(mime) {
		if s, ok := r.serializers[JSON]; ok {
			return s, true
		}
	}
	return nil, false
}

// ParserFor returns the parser registered for mime, following the same
// rules as SerializerFor.
func (r *Registry) ParserFor(mime string) (Parser, bool) {
	key := Essence(mime)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parsers[key]; ok {
		return p, true
	}
	if IsJSON(mime) {
		if p, ok := r.parsers[JSON]; ok {
			return p, true
		}
	}
	return nil, false
}

// SetAlias maps alias to mime. An empty mime removes the alias.
func (r *Registry) SetAlias(alias, mime string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mime == "" {
		delete(r.aliases, alias)
		return
	}
	if r.aliases == nil {
		r.aliases = make(map[string]string)
	}
	r.aliases[alias] = mime
}

// SetSerializer registers s for mime. A nil s removes the entry.
func (r *Registry) SetSerializer(mime string, s Serializer) {
	key := Essence(mime)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil {
		delete(r.serializers, key)
		return
	}
	if r.serializers == nil {
		r.serializers = make(map[string]Serializer)
	}
	r.serializers[key] = s
}

// SetParser registers p for mime. A nil p removes the entry.
func (r *Registry) SetParser(mime string, p Parser) {
	key := Essence(mime)
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		delete(r.parsers, key)
		return
	}
	if r.parsers == nil {
		r.parsers = make(map[string]Parser)
	}
	r.parsers[key] = p
}
