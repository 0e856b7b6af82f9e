// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsJSON(t *testing.T) {
	yes := []string{
		"application/json",
		"application/json; charset=utf-8",
		"application/vnd.api+json",
		"application/ld+json;profile=x",
		"APPLICATION/JSON",
	}
	no := []string{
		"application/json-seq",
		"text/plain",
		"application/jsonx",
		"",
	}
	for _, mime := range yes {
		assert.True(t, IsJSON(mime), mime)
	}
	for _, mime := range no {
		assert.False(t, IsJSON(mime), mime)
	}
}

func TestRegistry_ResolveMime(t *testing.T) {
	r := New()

	assert.Equal(t, JSON, r.ResolveMime("json"))
	assert.Equal(t, XML, r.ResolveMime("xml"))
	assert.Equal(t, HTML, r.ResolveMime("html"))
	assert.Equal(t, Form, r.ResolveMime("form"))
	assert.Equal(t, Form, r.ResolveMime("form-data"))
	assert.Equal(t, Form, r.ResolveMime("urlencoded"))
	assert.Equal(t, "application/x-custom", r.ResolveMime("application/x-custom"))
	assert.Equal(t, "unknown", r.ResolveMime("unknown"))
}

func TestRegistry_SerializerFor(t *testing.T) {
	r := New()

	t.Run("exact", func(t *testing.T) {
		s, ok := r.SerializerFor("application/x-www-form-urlencoded")
		require.True(t, ok)
		b, err := s(map[string]interface{}{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, "a=1", string(b))
	})
	t.Run("parameters ignored", func(t *testing.T) {
		_, ok := r.SerializerFor("application/json; charset=utf-8")
		assert.True(t, ok)
	})
	t.Run("JSON-like fallback", func(t *testing.T) {
		s, ok := r.SerializerFor("application/vnd.api+json")
		require.True(t, ok)
		b, err := s(map[string]interface{}{"name": "tj"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"tj"}`, string(b))
	})
	t.Run("none", func(t *testing.T) {
		_, ok := r.SerializerFor("text/xml")
		assert.False(t, ok)
	})
}

func TestRegistry_ParserFor(t *testing.T) {
	r := New()

	t.Run("JSON", func(t *testing.T) {
		p, ok := r.ParserFor("application/problem+json")
		require.True(t, ok)
		v, err := p([]byte(`{"a":[1,true,null]}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"a": []interface{}{float64(1), true, nil}}, v)
	})
	t.Run("JSON syntax error", func(t *testing.T) {
		p, ok := r.ParserFor(JSON)
		require.True(t, ok)
		_, err := p([]byte(`{"a":`))
		assert.Error(t, err)
	})
	t.Run("form", func(t *testing.T) {
		p, ok := r.ParserFor(Form)
		require.True(t, ok)
		v, err := p([]byte("a=b&c"))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "b", "c": ""}, v)
	})
	t.Run("YAML", func(t *testing.T) {
		p, ok := r.ParserFor("application/x-yaml")
		require.True(t, ok)
		v, err := p([]byte("name: tj\n"))
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"name": "tj"}, v)
	})
	t.Run("TOML", func(t *testing.T) {
		p, ok := r.ParserFor(TOML)
		require.True(t, ok)
		v, err := p([]byte(`name = "tj"`))
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"name": "tj"}, v)
	})
	t.Run("HTML not registered", func(t *testing.T) {
		_, ok := r.ParserFor(HTML)
		assert.False(t, ok)
	})
}

func TestRegistry_Mutation(t *testing.T) {
	r := New()
	c := r.Clone()
	boom := errors.New("boom")

	c.SetAlias("csv", "text/csv")
	c.SetParser("text/csv", func(data []byte) (interface{}, error) { return nil, boom })
	c.SetSerializer(JSON, nil)

	assert.Equal(t, "text/csv", c.ResolveMime("csv"))
	assert.Equal(t, "csv", r.ResolveMime("csv"))
	p, ok := c.ParserFor("text/csv")
	require.True(t, ok)
	_, err := p(nil)
	assert.Same(t, boom, err)
	_, ok = c.SerializerFor(JSON)
	assert.False(t, ok)
	_, ok = r.SerializerFor(JSON)
	assert.True(t, ok)

	c.SetAlias("csv", "")
	assert.Equal(t, "csv", c.ResolveMime("csv"))
}

func TestRegistry_ZeroValue(t *testing.T) {
	var r Registry

	_, ok := r.ParserFor(JSON)
	assert.False(t, ok)
	r.SetParser(JSON, ParseJSON)
	_, ok = r.ParserFor("application/hal+json")
	assert.True(t, ok)
}

func TestParseHTML(t *testing.T) {
	v, err := ParseHTML([]byte("<html><head><title>Hi</title></head></html>"))

	require.NoError(t, err)
	require.IsType(t, &goquery.Document{}, v)
	assert.Equal(t, "Hi", v.(*goquery.Document).Find("title").Text())
}
