// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected map[string]string
	}{
		{"a=b", map[string]string{"a": "b"}},
		{"a=b&c", map[string]string{"a": "b", "c": ""}},
		{"a=1&a=2", map[string]string{"a": "2"}},
		{"x=a%20b&y=c+d", map[string]string{"x": "a b", "y": "c+d"}},
		{"k=v=w", map[string]string{"k": "v=w"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			actual, err := Parse(testCase.input)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, actual)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("a=%zz")

	assert.Error(t, err)
}

func TestParse_InvertsEncode(t *testing.T) {
	input := map[string]string{
		"name":  "Jane Doe",
		"email": "jane+test@example.com",
		"note":  "50% off & more",
		"empty": "",
	}

	encoded, err := Encode(input)
	require.NoError(t, err)
	decoded, err := Parse(encoded)
	require.NoError(t, err)

	assert.Equal(t, input, decoded)
}
