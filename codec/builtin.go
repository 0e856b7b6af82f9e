// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/gogama/agent/query"
	"github.com/pelletier/go-toml/v2"
)

// MIME types with built-in codecs or aliases.
const (
	JSON       = "application/json"
	Form       = "application/x-www-form-urlencoded"
	XML        = "text/xml"
	HTML       = "text/html"
	Text       = "text/plain"
	YAML       = "application/yaml"
	TOML       = "application/toml"
	legacyYAML = "application/x-yaml"
)

var builtinAliases = map[string]string{
	"html":       HTML,
	"json":       JSON,
	"xml":        XML,
	"text":       Text,
	"urlencoded": Form,
	"form":       Form,
	"form-data":  Form,
	"yaml":       YAML,
	"toml":       TOML,
}

func registerBuiltins(r *Registry) {
	r.SetSerializer(JSON, SerializeJSON)
	r.SetParser(JSON, ParseJSON)
	r.SetSerializer(Form, SerializeForm)
	r.SetParser(Form, ParseForm)
	for _, mime := range []string{YAML, legacyYAML, "text/yaml"} {
		r.SetSerializer(mime, SerializeYAML)
		r.SetParser(mime, ParseYAML)
	}
	r.SetSerializer(TOML, SerializeTOML)
	r.SetParser(TOML, ParseTOML)
}

// SerializeJSON encodes v as JSON.
func SerializeJSON(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// ParseJSON decodes a JSON document into maps, slices, strings,
// float64, bool and nil.
func ParseJSON(data []byte) (interface{}, error) {
	var v interface{}
	if err := sonic.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SerializeForm encodes v as application/x-www-form-urlencoded using
// query.Encode.
func SerializeForm(v interface{}) ([]byte, error) {
	s, err := query.Encode(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// ParseForm decodes a form body into a map[string]string.
func ParseForm(data []byte) (interface{}, error) {
	m, err := query.Parse(string(data))
	if err != nil {
		return nil, err
	}
	return m, nil
}

func SerializeYAML(v interface{}) ([]byte, error) {
	return yaml.Marshal(v)
}

func ParseYAML(data []byte) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func SerializeTOML(v interface{}) ([]byte, error) {
	return toml.Marshal(v)
}

// ParseTOML decodes a TOML document into a map[string]interface{}.
func ParseTOML(data []byte) (interface{}, error) {
	var v map[string]interface{}
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("agent/codec: %w", err)
	}
	return v, nil
}
